package api

import (
	"net/http"

	"park-ops/internal/auth"
	"park-ops/internal/models"
	"park-ops/internal/sales"
	"park-ops/internal/utils"
)

func (h *Handler) ListPackageSales(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateQuery(r, "date")
	if err != nil {
		h.sendError(w, r, "Package sales", err)
		return
	}
	records, err := h.Sales.PackageSalesFor(r.Context(), date)
	if err != nil {
		h.sendError(w, r, "Package sales", err)
		return
	}
	if s := session(r); s.Role.Restricted() {
		own := []models.PackageSalesRecord{}
		for _, rec := range records {
			if s.Role == models.RoleTicketSales && rec.PersonnelID == s.UserID {
				own = append(own, rec)
			}
		}
		records = own
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Package sales", records))
}

// SavePackageSales stores a day's package sales. Ticket sales staff may only
// save their own; operators may not save any.
func (h *Handler) SavePackageSales(w http.ResponseWriter, r *http.Request) {
	var rec models.PackageSalesRecord
	if err := decodeJSON(r, &rec); err != nil {
		h.sendError(w, r, "Save package sales", err)
		return
	}
	s := session(r)
	if s.Role == models.RoleOperator || (s.Role == models.RoleTicketSales && rec.PersonnelID != s.UserID) {
		sendJSONResponse(w, http.StatusForbidden, utils.ErrorResponse("Save package sales failed", "you can only record your own sales"))
		return
	}
	if rec.Date == "" {
		rec.Date = utils.Today(h.Location)
	}

	saved, err := h.Sales.SavePackageSales(r.Context(), rec, s.UserName)
	if err != nil {
		h.sendError(w, r, "Save package sales", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Package sales saved", saved))
}

func (h *Handler) Handover(w http.ResponseWriter, r *http.Request) {
	var req sales.HandoverRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendError(w, r, "Handover", err)
		return
	}
	if req.Date == "" {
		req.Date = utils.Today(h.Location)
	}
	rec, err := h.Sales.Handover(r.Context(), req, auth.UserName(r.Context()))
	if err != nil {
		h.sendError(w, r, "Handover", err)
		return
	}
	sendJSONResponse(w, http.StatusCreated, utils.SuccessResponse("Counter handed over", rec))
}

func (h *Handler) ListHandovers(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := utils.ParseDate(date); err != nil {
			h.sendError(w, r, "Handovers", utils.NewValidationError("date", err.Error()))
			return
		}
	}
	records, err := h.History.Handovers(r.Context(), date)
	if err != nil {
		h.sendError(w, r, "Handovers", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Handovers", records))
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := h.HistoryPageSize
	if v, err := intQuery(r, "limit"); err != nil {
		h.sendError(w, r, "History", err)
		return
	} else if v > 0 {
		limit = v
	}
	records, err := h.History.Recent(r.Context(), limit)
	if err != nil {
		h.sendError(w, r, "History", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("History", records))
}
