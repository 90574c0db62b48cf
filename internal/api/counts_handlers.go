package api

import (
	"net/http"

	"park-ops/internal/auth"
	"park-ops/internal/models"
	"park-ops/internal/utils"
)

func (h *Handler) GetCounts(w http.ResponseWriter, r *http.Request) {
	kind, err := countKindParam(r)
	if err != nil {
		h.sendError(w, r, "Counts", err)
		return
	}
	date, err := h.dateQuery(r, "date")
	if err != nil {
		h.sendError(w, r, "Counts", err)
		return
	}
	values, err := h.Counts.ForDate(r.Context(), kind, date)
	if err != nil {
		h.sendError(w, r, "Counts", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Counts", values))
}

type setCountRequest struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// SetCount overwrites one entity's count for the date.
func (h *Handler) SetCount(w http.ResponseWriter, r *http.Request) {
	kind, err := countKindParam(r)
	if err != nil {
		h.sendError(w, r, "Set count", err)
		return
	}
	id, err := intParam(r, "id")
	if err != nil {
		h.sendError(w, r, "Set count", err)
		return
	}
	var req setCountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, r, "Set count", err)
		return
	}
	if req.Date == "" {
		req.Date = utils.Today(h.Location)
	}

	changed, err := h.Counts.SetCount(r.Context(), kind, req.Date, id, req.Value, auth.UserName(r.Context()))
	if err != nil {
		h.sendError(w, r, "Set count", err)
		return
	}
	msg := "Count saved"
	if !changed {
		msg = "Count unchanged"
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse(msg, map[string]interface{}{
		"id":      id,
		"value":   req.Value,
		"changed": changed,
	}))
}

type saveDeltaRequest struct {
	Date  string            `json:"date"`
	Delta models.CountDelta `json:"delta"`
}

// SaveDelta applies a tickets/packages change to a ride's guest count.
func (h *Handler) SaveDelta(w http.ResponseWriter, r *http.Request) {
	rideID, err := intParam(r, "rideId")
	if err != nil {
		h.sendError(w, r, "Save guest count", err)
		return
	}
	var req saveDeltaRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, r, "Save guest count", err)
		return
	}
	if req.Date == "" {
		req.Date = utils.Today(h.Location)
	}

	b, err := h.Counts.SaveDelta(r.Context(), req.Date, rideID, req.Delta, auth.UserName(r.Context()))
	if err != nil {
		h.sendError(w, r, "Save guest count", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Guest count saved", map[string]interface{}{
		"breakdown": b,
		"total":     b.Total(),
	}))
}

func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	rideID, err := intParam(r, "rideId")
	if err != nil {
		h.sendError(w, r, "Guest count breakdown", err)
		return
	}
	date, err := h.dateQuery(r, "date")
	if err != nil {
		h.sendError(w, r, "Guest count breakdown", err)
		return
	}
	b, err := h.Counts.Breakdown(r.Context(), date, rideID)
	if err != nil {
		h.sendError(w, r, "Guest count breakdown", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Guest count breakdown", b))
}

type resetRequest struct {
	Date    string `json:"date"`
	Confirm bool   `json:"confirm"`
}

// ResetCounts clears a day's counts. The body must carry confirm: true.
func (h *Handler) ResetCounts(w http.ResponseWriter, r *http.Request) {
	kind, err := countKindParam(r)
	if err != nil {
		h.sendError(w, r, "Reset counts", err)
		return
	}
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, r, "Reset counts", err)
		return
	}
	if req.Date == "" {
		req.Date = utils.Today(h.Location)
	}
	if err := h.Counts.ResetDay(r.Context(), kind, req.Date, auth.UserName(r.Context()), req.Confirm); err != nil {
		h.sendError(w, r, "Reset counts", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Counts reset", nil))
}
