package api

import (
	"fmt"
	"net/http"
	"time"

	"park-ops/internal/auth"
	"park-ops/internal/models"
	"park-ops/internal/utils"
)

type loginResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
	Session   models.SessionState `json:"session"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, r, "Login", err)
		return
	}

	state, err := h.Auth.Login(r.Context(), req)
	if err != nil {
		h.sendError(w, r, "Login", err)
		return
	}

	token, expires, err := h.Issuer.Issue(state)
	if err != nil {
		h.sendError(w, r, "Login", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Signed in", loginResponse{
		Token:     token,
		ExpiresAt: expires,
		Session:   state,
	}))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.TokenClaims(r.Context())
	if ok && h.Revoker != nil && claims.ExpiresAt != nil {
		if err := h.Revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			h.sendError(w, r, "Logout", err)
			return
		}
	}
	h.Logger.Info("AUTH", fmt.Sprintf("%s signed out", auth.UserName(r.Context())))
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Signed out", nil))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Session", session(r)))
}
