package api

import (
	"fmt"
	"net/http"

	"park-ops/internal/auth"
	"park-ops/internal/models"
	"park-ops/internal/roster"
	"park-ops/internal/utils"

	"github.com/go-chi/chi/v5"
)

func assignmentKindParam(r *http.Request) (models.AssignmentKind, error) {
	kind, err := models.ParseAssignmentKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", utils.NewValidationError("kind", err.Error())
	}
	return kind, nil
}

// GetRoster returns the date's roster. Operators and ticket sales staff only
// see their own row.
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	kind, err := staffKindParam(r)
	if err != nil {
		h.sendError(w, r, "Roster", err)
		return
	}
	date, err := h.dateQuery(r, "date")
	if err != nil {
		h.sendError(w, r, "Roster", err)
		return
	}
	view, err := h.Reports.Roster(r.Context(), date, kind, session(r))
	if err != nil {
		h.sendError(w, r, "Roster", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Roster", view))
}

func (h *Handler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	kind, err := assignmentKindParam(r)
	if err != nil {
		h.sendError(w, r, "Assignments", err)
		return
	}
	date, err := h.dateQuery(r, "date")
	if err != nil {
		h.sendError(w, r, "Assignments", err)
		return
	}
	a, err := h.Collections.Assignments(r.Context(), kind, date)
	if err != nil {
		h.sendError(w, r, "Assignments", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Assignments", a))
}

type saveAssignmentsRequest struct {
	Date        string                `json:"date"`
	Assignments models.RawAssignments `json:"assignments"`
}

// SaveAssignments replaces one date's assignments with the working copy.
func (h *Handler) SaveAssignments(w http.ResponseWriter, r *http.Request) {
	kind, err := assignmentKindParam(r)
	if err != nil {
		h.sendError(w, r, "Save assignments", err)
		return
	}
	var req saveAssignmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, r, "Save assignments", err)
		return
	}
	if _, err := utils.ParseDate(req.Date); err != nil {
		h.sendError(w, r, "Save assignments", utils.NewValidationError("date", err.Error()))
		return
	}

	a := roster.Normalize(req.Assignments)
	if err := h.Collections.SetAssignments(r.Context(), kind, req.Date, a); err != nil {
		h.sendError(w, r, "Save assignments", err)
		return
	}

	user := auth.UserName(r.Context())
	details := fmt.Sprintf("Saved %s assignments for %s (%d assigned)", kind.StaffKind(), req.Date, len(a))
	if _, err := h.History.Append(r.Context(), user, "Assignments Saved", details); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Assignments saved but history append failed: %v", err))
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Assignments saved", a))
}
