// Package api exposes the park operations services over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"park-ops/internal/attendance"
	"park-ops/internal/auth"
	"park-ops/internal/backup"
	"park-ops/internal/catalog"
	"park-ops/internal/counts"
	"park-ops/internal/history"
	"park-ops/internal/logger"
	"park-ops/internal/models"
	"park-ops/internal/reports"
	"park-ops/internal/sales"
	"park-ops/internal/spreadsheet"
	"park-ops/internal/staffimport"
	"park-ops/internal/store"
	"park-ops/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var managers = []models.Role{models.RoleAdmin, models.RoleSupervisor, models.RoleSalesSupervisor}

// Handler wires the services to chi routes.
type Handler struct {
	Store       store.SnapshotStore
	Collections *store.Collections
	Auth        *auth.Authenticator
	Issuer      *auth.Issuer
	Revoker     auth.Revoker
	Catalog     *catalog.Service
	Attendance  *attendance.Service
	Counts      *counts.Reconciler
	Sales       *sales.Service
	Reports     *reports.Service
	History     *history.Log
	Imports     *staffimport.Manager
	Logger      *logger.Logger

	MaxUploadBytes  int64
	HistoryPageSize int
	Location        *time.Location
}

// NewHandler builds every service on top of one store.
func NewHandler(s store.SnapshotStore, c *store.Collections, h *history.Log, a *auth.Authenticator, issuer *auth.Issuer, badges *attendance.BadgeGenerator, imports *staffimport.Manager, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	salesService := sales.NewService(c, h, log)
	return &Handler{
		Store:           s,
		Collections:     c,
		Auth:            a,
		Issuer:          issuer,
		Catalog:         catalog.NewService(c, h, log),
		Attendance:      attendance.NewService(c, h, badges, log),
		Counts:          counts.NewReconciler(c, h, log),
		Sales:           salesService,
		Reports:         reports.NewService(c, salesService),
		History:         h,
		Imports:         imports,
		Logger:          log,
		MaxUploadBytes:  10 << 20,
		HistoryPageSize: 100,
		Location:        time.Local,
	}
}

// Routes returns the full router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Get("/auth/staff/{kind}", h.ListStaff)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.Issuer, h.Revoker))
			h.RegisterRoutes(r)
		})
	})
	return r
}

// RegisterRoutes registers the authenticated routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/me", h.Me)

	r.Get("/rides", h.ListRides)
	r.Get("/counters", h.ListCounters)
	r.Get("/staff/{kind}", h.ListStaff)

	r.Get("/roster/{kind}", h.GetRoster)

	r.Get("/attendance", h.ListAttendance)
	r.Post("/attendance", h.CheckIn)
	r.Post("/attendance/badge", h.CheckInWithBadge)

	r.Get("/counts/{kind}", h.GetCounts)
	r.Get("/counts/guests/{rideId}/breakdown", h.GetBreakdown)

	r.Get("/package-sales", h.ListPackageSales)
	r.Post("/package-sales", h.SavePackageSales)

	r.Get("/handovers", h.ListHandovers)
	r.Get("/stream/{path}", h.Stream)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(managers...))

		r.Post("/rides", h.AddRide)
		r.Delete("/rides/{id}", h.DeleteRide)
		r.Post("/counters", h.AddCounter)
		r.Delete("/counters/{id}", h.DeleteCounter)
		r.Post("/staff/{kind}", h.AddStaff)
		r.Delete("/staff/{kind}/{id}", h.DeleteStaff)

		r.Get("/assignments/{kind}", h.GetAssignments)
		r.Put("/assignments/{kind}", h.SaveAssignments)
		r.Post("/imports/assignments/{kind}", h.ImportAssignments)

		r.Post("/imports/staff/{kind}", h.StartStaffImport)
		r.Get("/imports/staff/sessions/{id}", h.GetStaffImport)
		r.Post("/imports/staff/sessions/{id}/{action}", h.StaffImportAction)

		r.Delete("/attendance/{kind}/{id}", h.UndoAttendance)
		r.Get("/badges/{kind}/{id}", h.BadgePNG)

		r.Put("/counts/{kind}/{id}", h.SetCount)
		r.Post("/counts/guests/{rideId}/delta", h.SaveDelta)
		r.Post("/counts/{kind}/reset", h.ResetCounts)

		r.Post("/handovers", h.Handover)

		r.Get("/history", h.ListHistory)

		r.Get("/reports/attendance/{kind}", h.AttendanceReport)
		r.Get("/reports/expertise/{kind}", h.ExpertiseReport)
		r.Get("/reports/guest-counts", h.GuestCountReport)
		r.Get("/reports/sales", h.SalesReport)
		r.Get("/reports/staff/{kind}", h.StaffReport)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleAdmin))
		r.Get("/backup", h.ExportBackup)
		r.Post("/backup", h.RestoreBackup)
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.Logger.LogAPI(r.Method, r.URL.Path, strconv.Itoa(ww.Status()), time.Since(start).String())
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("ok", nil))
}

// sendJSONResponse is a helper function to send JSON responses
func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError maps service errors onto status codes.
func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case utils.IsValidation(err),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat),
		errors.Is(err, spreadsheet.ErrEmpty),
		errors.Is(err, backup.ErrInvalidBackup),
		errors.Is(err, attendance.ErrInvalidBadge),
		errors.Is(err, store.ErrUnknownPath):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, staffimport.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, staffimport.ErrInvalidTransition),
		errors.Is(err, counts.ErrConfirmationRequired),
		errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	}

	if status >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s %s: %s failed: %v", r.Method, r.URL.Path, op, err))
	} else {
		h.Logger.Warn("API", fmt.Sprintf("%s %s: %s rejected: %v", r.Method, r.URL.Path, op, err))
	}
	sendJSONResponse(w, status, utils.ErrorResponse(op+" failed", err.Error()))
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return utils.NewValidationError("body", "invalid request body: "+err.Error())
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, utils.NewValidationError(name, "must be a number")
	}
	return v, nil
}

// intQuery reads an optional numeric query parameter; absent is 0.
func intQuery(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, utils.NewValidationError(name, "must be a number")
	}
	return n, nil
}

func staffKindParam(r *http.Request) (models.StaffKind, error) {
	kind, err := models.ParseStaffKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", utils.NewValidationError("kind", err.Error())
	}
	return kind, nil
}

func countKindParam(r *http.Request) (counts.Kind, error) {
	return counts.ParseKind(chi.URLParam(r, "kind"))
}

// dateQuery reads ?date=, defaulting to today in the park's time zone.
func (h *Handler) dateQuery(r *http.Request, name string) (string, error) {
	date := r.URL.Query().Get(name)
	if date == "" {
		return utils.Today(h.Location), nil
	}
	if _, err := utils.ParseDate(date); err != nil {
		return "", utils.NewValidationError(name, err.Error())
	}
	return date, nil
}

func session(r *http.Request) models.SessionState {
	s, _ := auth.Session(r.Context())
	return s
}

// staffKindOf is the staff list a restricted role signs in from.
func staffKindOf(role models.Role) models.StaffKind {
	if role == models.RoleTicketSales {
		return models.StaffTicketSales
	}
	return models.StaffOperator
}
