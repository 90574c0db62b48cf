package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"park-ops/internal/auth"
	"park-ops/internal/backup"
	"park-ops/internal/utils"
)

// ExportBackup downloads every collection as one JSON file.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	f, err := backup.Export(r.Context(), h.Store)
	if err != nil {
		h.sendError(w, r, "Backup", err)
		return
	}
	data, err := backup.Marshal(f)
	if err != nil {
		h.sendError(w, r, "Backup", err)
		return
	}

	name := fmt.Sprintf("parkops-backup-%s.json", time.Now().In(h.Location).Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
	h.Logger.LogSecurity("BACKUP_EXPORT", fmt.Sprintf("Backup downloaded by %s", auth.UserName(r.Context())))
}

// RestoreBackup applies a backup file sent as the request body. The whole
// file is checked before any collection is written.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.MaxUploadBytes))
	if err != nil {
		h.sendError(w, r, "Restore", utils.NewValidationError("body", err.Error()))
		return
	}
	applied, err := backup.Import(r.Context(), h.Store, data)
	if err != nil {
		h.sendError(w, r, "Restore", err)
		return
	}

	user := auth.UserName(r.Context())
	h.Logger.LogSecurity("BACKUP_RESTORE", fmt.Sprintf("Backup restored by %s: %v", user, applied))
	if _, err := h.History.Append(r.Context(), user, "Backup Restored", fmt.Sprintf("Restored %d collections", len(applied))); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Restore applied but history append failed: %v", err))
	}
	sendJSONResponse(w, http.StatusOK, utils.SuccessResponse("Backup restored", applied))
}
