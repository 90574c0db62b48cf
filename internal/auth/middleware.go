package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"park-ops/internal/models"
	"park-ops/internal/utils"
)

type contextKey string

const (
	sessionKey contextKey = "session"
	claimsKey  contextKey = "claims"
)

// Middleware verifies the bearer token and puts the session into the request
// context. Revoked may be nil.
func Middleware(issuer *Issuer, revoked Revoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractTokenFromRequest(r)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			claims, err := issuer.Parse(raw)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			if revoked != nil {
				gone, err := revoked.Revoked(r.Context(), claims.ID)
				if err != nil {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusServiceUnavailable)
					json.NewEncoder(w).Encode(utils.ErrorResponse("Session check unavailable", err.Error()))
					return
				}
				if gone {
					unauthorized(w, "session has been signed out")
					return
				}
			}

			ctx := context.WithValue(r.Context(), sessionKey, claims.SessionState)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects sessions whose role is not listed.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state, ok := Session(r.Context())
			if !ok {
				unauthorized(w, "not signed in")
				return
			}
			for _, role := range roles {
				if state.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(utils.ErrorResponse("Forbidden", "role "+string(state.Role)+" may not do this"))
		})
	}
}

// Session returns the signed-in session.
func Session(ctx context.Context) (models.SessionState, bool) {
	s, ok := ctx.Value(sessionKey).(models.SessionState)
	return s, ok
}

// TokenClaims returns the verified token claims.
func TokenClaims(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

// UserName is the name recorded against changes made by this request.
func UserName(ctx context.Context) string {
	if s, ok := Session(ctx); ok {
		return s.UserName
	}
	return ""
}

// WithSession returns ctx carrying state.
func WithSession(ctx context.Context, state models.SessionState) context.Context {
	return context.WithValue(ctx, sessionKey, state)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(utils.ErrorResponse("Unauthorized", msg))
}
