package api

import (
	"net/http"

	"park-ops/internal/auth"
	"park-ops/internal/utils"
)

func (h *Handler) ListRides(w http.ResponseWriter, r *http.Request) {
	rides, err := h.Collections.Rides(r.Context())
	if err != nil {
		h.sendError(w, r, "List rides", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Rides", rides))
}

func (h *Handler) ListCounters(w http.ResponseWriter, r *http.Request) {
	counters, err := h.Collections.Counters(r.Context())
	if err != nil {
		h.sendError(w, r, "List counters", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Counters", counters))
}

// ListStaff is also served without a session so the login screen can offer names.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	kind, err := staffKindParam(r)
	if err != nil {
		h.sendError(w, r, "List staff", err)
		return
	}
	staff, err := h.Collections.Staff(r.Context(), kind)
	if err != nil {
		h.sendError(w, r, "List staff", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Staff", staff))
}

type addRideRequest struct {
	Name  string `json:"name"`
	Floor string `json:"floor"`
}

func (h *Handler) AddRide(w http.ResponseWriter, r *http.Request) {
	var req addRideRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, r, "Add ride", err)
		return
	}
	ride, err := h.Catalog.AddRide(r.Context(), req.Name, req.Floor, auth.UserName(r.Context()))
	if err != nil {
		h.sendError(w, r, "Add ride", err)
		return
	}
	sendJSONResponse(w, http.StatusCreated, utils.SuccessResponse("Ride added", ride))
}

func (h *Handler) DeleteRide(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err == nil {
		err = h.Catalog.DeleteRide(r.Context(), id, auth.UserName(r.Context()))
	}
	if err != nil {
		h.sendError(w, r, "Delete ride", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Ride deleted", nil))
}

type addCounterRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (h *Handler) AddCounter(w http.ResponseWriter, r *http.Request) {
	var req addCounterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, r, "Add counter", err)
		return
	}
	counter, err := h.Catalog.AddCounter(r.Context(), req.Name, req.Location, auth.UserName(r.Context()))
	if err != nil {
		h.sendError(w, r, "Add counter", err)
		return
	}
	sendJSONResponse(w, http.StatusCreated, utils.SuccessResponse("Counter added", counter))
}

func (h *Handler) DeleteCounter(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err == nil {
		err = h.Catalog.DeleteCounter(r.Context(), id, auth.UserName(r.Context()))
	}
	if err != nil {
		h.sendError(w, r, "Delete counter", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Counter deleted", nil))
}

func (h *Handler) AddStaff(w http.ResponseWriter, r *http.Request) {
	kind, err := staffKindParam(r)
	if err != nil {
		h.sendError(w, r, "Add staff", err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, r, "Add staff", err)
		return
	}
	staff, err := h.Catalog.AddStaff(r.Context(), kind, req.Name, auth.UserName(r.Context()))
	if err != nil {
		h.sendError(w, r, "Add staff", err)
		return
	}
	sendJSONResponse(w, http.StatusCreated, utils.SuccessResponse("Staff member added", staff))
}

func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	kind, err := staffKindParam(r)
	if err != nil {
		h.sendError(w, r, "Delete staff", err)
		return
	}
	id, err := intParam(r, "id")
	if err == nil {
		err = h.Catalog.DeleteStaff(r.Context(), kind, id, auth.UserName(r.Context()))
	}
	if err != nil {
		h.sendError(w, r, "Delete staff", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Staff member deleted", nil))
}
