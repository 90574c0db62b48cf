package api

import (
	"net/http"
	"strconv"

	"park-ops/internal/auth"
	"park-ops/internal/models"
	"park-ops/internal/utils"
)

func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseStaffKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.sendError(w, r, "Attendance", utils.NewValidationError("kind", err.Error()))
		return
	}
	date, err := h.dateQuery(r, "date")
	if err != nil {
		h.sendError(w, r, "Attendance", err)
		return
	}
	records, err := h.Attendance.ForDate(r.Context(), date, kind)
	if err != nil {
		h.sendError(w, r, "Attendance", err)
		return
	}
	if s := session(r); s.Role.Restricted() {
		records = ownRecords(records, s)
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Attendance", records))
}

func ownRecords(records []models.AttendanceRecord, s models.SessionState) []models.AttendanceRecord {
	out := []models.AttendanceRecord{}
	for _, rec := range records {
		if rec.OperatorID == s.UserID && rec.StaffKind() == staffKindOf(s.Role) {
			out = append(out, rec)
		}
	}
	return out
}

// CheckIn records attendance. Operators and ticket sales staff may only
// check themselves in.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var rec models.AttendanceRecord
	if err := decodeJSON(r, &rec); err != nil {
		h.sendError(w, r, "Check in", err)
		return
	}
	if rec.Date == "" {
		rec.Date = utils.Today(h.Location)
	}
	if s := session(r); s.Role.Restricted() {
		if rec.OperatorID != s.UserID || rec.StaffKind() != staffKindOf(s.Role) {
			sendJSONResponse(w, http.StatusForbidden, utils.ErrorResponse("Check in failed", "you can only check yourself in"))
			return
		}
	}

	saved, err := h.Attendance.CheckIn(r.Context(), rec, auth.UserName(r.Context()))
	if err != nil {
		h.sendError(w, r, "Check in", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Checked in", saved))
}

type badgeCheckInRequest struct {
	Token            string `json:"token"`
	Date             string `json:"date"`
	AttendedBriefing bool   `json:"attendedBriefing"`
	BriefingTime     string `json:"briefingTime"`
}

func (h *Handler) CheckInWithBadge(w http.ResponseWriter, r *http.Request) {
	var req badgeCheckInRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, r, "Badge check in", err)
		return
	}
	if req.Date == "" {
		req.Date = utils.Today(h.Location)
	}
	saved, err := h.Attendance.CheckInWithBadge(r.Context(), req.Token, req.Date, req.AttendedBriefing, req.BriefingTime, auth.UserName(r.Context()))
	if err != nil {
		h.sendError(w, r, "Badge check in", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Checked in", saved))
}

func (h *Handler) UndoAttendance(w http.ResponseWriter, r *http.Request) {
	kind, err := staffKindParam(r)
	if err != nil {
		h.sendError(w, r, "Undo check in", err)
		return
	}
	id, err := intParam(r, "id")
	if err != nil {
		h.sendError(w, r, "Undo check in", err)
		return
	}
	date, err := h.dateQuery(r, "date")
	if err != nil {
		h.sendError(w, r, "Undo check in", err)
		return
	}
	if err := h.Attendance.Undo(r.Context(), id, date, kind, auth.UserName(r.Context())); err != nil {
		h.sendError(w, r, "Undo check in", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Check in removed", nil))
}

// BadgePNG renders a staff member's check-in QR badge.
func (h *Handler) BadgePNG(w http.ResponseWriter, r *http.Request) {
	kind, err := staffKindParam(r)
	if err != nil {
		h.sendError(w, r, "Badge", err)
		return
	}
	id, err := intParam(r, "id")
	if err != nil {
		h.sendError(w, r, "Badge", err)
		return
	}
	size := 256
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}

	png, err := h.Attendance.BadgeFor(r.Context(), kind, id, size)
	if err != nil {
		h.sendError(w, r, "Badge", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
