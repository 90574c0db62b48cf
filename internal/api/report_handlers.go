package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"park-ops/internal/models"
	"park-ops/internal/reports"
	"park-ops/internal/utils"
)

// sendTable writes t as JSON, CSV or XLSX according to ?format=.
func (h *Handler) sendTable(w http.ResponseWriter, r *http.Request, t reports.Table, filename string) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "", "json":
		sendJSONResponse(w, http.StatusOK, utils.SuccessResponse(t.Name, t))
		return
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = t.WriteCSV(&buf)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = t.WriteXLSX(&buf)
	default:
		h.sendError(w, r, t.Name, utils.NewValidationError("format", fmt.Sprintf("unknown format %q", format)))
		return
	}
	if err != nil {
		h.sendError(w, r, t.Name, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+"."+format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) AttendanceReport(w http.ResponseWriter, r *http.Request) {
	kind, err := staffKindParam(r)
	if err != nil {
		h.sendError(w, r, "Attendance report", err)
		return
	}
	date, err := h.dateQuery(r, "date")
	if err != nil {
		h.sendError(w, r, "Attendance report", err)
		return
	}
	t, err := h.Reports.AttendanceTable(r.Context(), date, kind)
	if err != nil {
		h.sendError(w, r, "Attendance report", err)
		return
	}
	h.sendTable(w, r, t, fmt.Sprintf("attendance-%s-%s", kind, date))
}

// ExpertiseReport ranks operators by distinct rides or personnel by
// distinct counters.
func (h *Handler) ExpertiseReport(w http.ResponseWriter, r *http.Request) {
	kind, err := staffKindParam(r)
	if err != nil {
		h.sendError(w, r, "Expertise report", err)
		return
	}
	var t reports.Table
	if kind == models.StaffTicketSales {
		t, err = h.Reports.CounterFrequencyTable(r.Context())
	} else {
		t, err = h.Reports.RideExpertiseTable(r.Context())
	}
	if err != nil {
		h.sendError(w, r, "Expertise report", err)
		return
	}
	h.sendTable(w, r, t, "expertise-"+string(kind))
}

func (h *Handler) GuestCountReport(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateQuery(r, "date")
	if err != nil {
		h.sendError(w, r, "Guest count report", err)
		return
	}
	t, err := h.Reports.GuestCountTable(r.Context(), date)
	if err != nil {
		h.sendError(w, r, "Guest count report", err)
		return
	}
	h.sendTable(w, r, t, "guest-counts-"+date)
}

// SalesReport returns the full report as JSON, or one of its tables
// (?table=counters|personnel) as CSV or XLSX.
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	from, err := h.dateQuery(r, "from")
	if err != nil {
		h.sendError(w, r, "Sales report", err)
		return
	}
	to, err := h.dateQuery(r, "to")
	if err != nil {
		h.sendError(w, r, "Sales report", err)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" || format == "json" {
		report, err := h.Sales.Report(r.Context(), from, to)
		if err != nil {
			h.sendError(w, r, "Sales report", err)
			return
		}
		sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Sales report", report))
		return
	}

	counters, personnel, err := h.Reports.SalesTables(r.Context(), from, to)
	if err != nil {
		h.sendError(w, r, "Sales report", err)
		return
	}
	switch r.URL.Query().Get("table") {
	case "", "counters":
		h.sendTable(w, r, counters, fmt.Sprintf("counter-sales-%s-%s", from, to))
	case "personnel":
		h.sendTable(w, r, personnel, fmt.Sprintf("package-sales-%s-%s", from, to))
	default:
		h.sendError(w, r, "Sales report", utils.NewValidationError("table", "must be counters or personnel"))
	}
}

func (h *Handler) StaffReport(w http.ResponseWriter, r *http.Request) {
	kind, err := staffKindParam(r)
	if err != nil {
		h.sendError(w, r, "Staff export", err)
		return
	}
	t, err := h.Reports.StaffTable(r.Context(), kind)
	if err != nil {
		h.sendError(w, r, "Staff export", err)
		return
	}
	h.sendTable(w, r, t, "staff-"+string(kind))
}
