package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"park-ops/internal/auth"
	"park-ops/internal/store"
	"park-ops/internal/utils"

	"github.com/go-chi/chi/v5"
)

const heartbeatInterval = 25 * time.Second

// restrictedStreams are the collections operators and sales staff may follow:
// the catalog and the day's counts, which they can already read. Everything
// else is manager-only.
var restrictedStreams = map[string]bool{
	store.PathRides:                true,
	store.PathCounters:             true,
	store.PathOperators:            true,
	store.PathTicketSalesPersonnel: true,
	store.PathDailyCounts:          true,
	store.PathTicketSalesData:      true,
}

// Stream pushes the current value of a collection and then every change to
// it as server-sent events.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")
	if !store.KnownPath(path) {
		sendJSONResponse(w, http.StatusNotFound, utils.ErrorResponse("Stream failed", fmt.Sprintf("unknown collection %q", path)))
		return
	}
	if session(r).Role.Restricted() && !restrictedStreams[path] {
		sendJSONResponse(w, http.StatusForbidden, utils.ErrorResponse("Stream failed", fmt.Sprintf("%s is not available to your role", path)))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		sendJSONResponse(w, http.StatusInternalServerError, utils.ErrorResponse("Stream failed", "streaming unsupported"))
		return
	}

	ctx := r.Context()
	snapshots, err := h.Store.Subscribe(ctx, path)
	if err != nil {
		h.sendError(w, r, "Stream", err)
		return
	}

	// The server write timeout would cut the stream off.
	http.NewResponseController(w).SetWriteDeadline(time.Time{})

	setupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"path\":%q}\n\n", path)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("%s subscribed to %s", auth.UserName(ctx), path))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Subscription to %s closed", path))
				return
			}
			if snap.Value == nil {
				snap.Value = json.RawMessage("null")
			}
			data, err := json.Marshal(snap)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize snapshot of %s: %v", path, err))
				continue
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from %s", path))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
