package api

import (
	"fmt"
	"net/http"

	"park-ops/internal/auth"
	"park-ops/internal/models"
	"park-ops/internal/spreadsheet"
	"park-ops/internal/staffimport"
	"park-ops/internal/utils"

	"github.com/go-chi/chi/v5"
)

// readUpload parses the multipart "file" field into rows.
func (h *Handler) readUpload(r *http.Request) ([][]string, error) {
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		return nil, utils.NewValidationError("file", "invalid upload: "+err.Error())
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, utils.NewValidationError("file", "a file is required")
	}
	defer file.Close()

	h.Logger.Debug("IMPORT", fmt.Sprintf("Reading %s (%d bytes)", header.Filename, header.Size))
	return spreadsheet.ReadRows(file, header.Filename)
}

// ImportAssignments merges a spreadsheet into the date's assignments. Rows
// that match are saved and the rest are reported back. With commit=false the
// result is returned without saving.
func (h *Handler) ImportAssignments(w http.ResponseWriter, r *http.Request) {
	kind, err := assignmentKindParam(r)
	if err != nil {
		h.sendError(w, r, "Import assignments", err)
		return
	}
	date, err := h.dateQuery(r, "date")
	if err != nil {
		h.sendError(w, r, "Import assignments", err)
		return
	}
	commit := r.URL.Query().Get("commit") != "false"
	rows, err := h.readUpload(r)
	if err != nil {
		h.sendError(w, r, "Import assignments", err)
		return
	}

	ctx := r.Context()
	staff, err := h.Collections.Staff(ctx, kind.StaffKind())
	if err != nil {
		h.sendError(w, r, "Import assignments", err)
		return
	}
	entities, err := h.Collections.Entities(ctx, kind)
	if err != nil {
		h.sendError(w, r, "Import assignments", err)
		return
	}

	var result spreadsheet.ImportResult
	if !commit {
		working, err := h.Collections.Assignments(ctx, kind, date)
		if err != nil {
			h.sendError(w, r, "Import assignments", err)
			return
		}
		result = spreadsheet.ImportAssignments(kind, rows, working, entities, staff)
		msg := fmt.Sprintf("%d rows would be imported", result.SuccessCount)
		sendJSONResponse(w, http.StatusOK, utils.PartialResponse(msg, result, result.Errors))
		return
	}

	err = h.Collections.UpdateAssignments(ctx, kind, date, func(current models.Assignments) (models.Assignments, error) {
		result = spreadsheet.ImportAssignments(kind, rows, current, entities, staff)
		if result.SuccessCount == 0 {
			return current, nil
		}
		return result.Assignments, nil
	})
	if err != nil {
		h.sendError(w, r, "Import assignments", err)
		return
	}
	if result.SuccessCount > 0 {
		details := fmt.Sprintf("Imported %d %s assignment rows for %s (%d errors)", result.SuccessCount, kind.StaffKind(), date, len(result.Errors))
		if _, err := h.History.Append(ctx, auth.UserName(ctx), "Assignments Imported", details); err != nil {
			h.Logger.Warn("API", fmt.Sprintf("Import saved but history append failed: %v", err))
		}
	}

	msg := fmt.Sprintf("Imported %d rows", result.SuccessCount)
	sendJSONResponse(w, http.StatusOK, utils.PartialResponse(msg, result, result.Errors))
}

type staffImportResponse struct {
	ID      string               `json:"id"`
	Kind    models.StaffKind     `json:"kind"`
	State   staffimport.State    `json:"state"`
	Names   []string             `json:"names"`
	Outcome *staffimport.Outcome `json:"outcome,omitempty"`
}

func describe(id string, m *staffimport.Machine) staffImportResponse {
	return staffImportResponse{ID: id, Kind: m.Kind(), State: m.State(), Names: m.Names(), Outcome: m.Outcome()}
}

// StartStaffImport reads a staff list and opens an import session awaiting
// merge or replace.
func (h *Handler) StartStaffImport(w http.ResponseWriter, r *http.Request) {
	kind, err := staffKindParam(r)
	if err != nil {
		h.sendError(w, r, "Import staff", err)
		return
	}
	rows, err := h.readUpload(r)
	if err != nil {
		h.sendError(w, r, "Import staff", err)
		return
	}
	names := spreadsheet.ParseStaffNames(rows)
	if len(names) == 0 {
		h.sendError(w, r, "Import staff", utils.NewValidationError("file", "no names found"))
		return
	}

	id, machine, err := h.Imports.Start(kind, names)
	if err != nil {
		h.sendError(w, r, "Import staff", err)
		return
	}
	sendJSONResponse(w, http.StatusCreated, utils.SuccessResponse(fmt.Sprintf("Found %d names", len(names)), describe(id, machine)))
}

func (h *Handler) GetStaffImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	machine, err := h.Imports.Get(id)
	if err != nil {
		h.sendError(w, r, "Import staff", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Import session", describe(id, machine)))
}

// StaffImportAction drives a session: merge, replace, confirm or cancel.
// Replace only asks for confirmation; confirm performs it.
func (h *Handler) StaffImportAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	machine, err := h.Imports.Get(id)
	if err != nil {
		h.sendError(w, r, "Import staff", err)
		return
	}

	ctx := r.Context()
	user := auth.UserName(ctx)
	action := chi.URLParam(r, "action")
	switch action {
	case "merge":
		_, err = machine.Merge(ctx, user)
	case "replace":
		err = machine.RequestReplace()
	case "confirm":
		_, err = machine.ConfirmReplace(ctx, user)
	case "cancel":
		err = machine.Cancel()
	default:
		err = utils.NewValidationError("action", fmt.Sprintf("unknown action %q", action))
	}
	if err != nil {
		h.sendError(w, r, "Import staff", err)
		return
	}

	resp := describe(id, machine)
	if machine.State().Terminal() {
		h.Imports.Finish(id)
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Import "+resp.State.String(), resp))
}
