package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"flightlog/internal/adapters/http/middleware"
	domain "flightlog/internal/domain/notification"
)

// handleDismissNotification hides a notification and returns to the page it
// was shown on. Unknown or already expired ids are ignored.
func (a *app) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visitor := middleware.VisitorID(ctx)
	err := a.queue.Dismiss(ctx, visitor, r.PathValue("id"))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		slog.Error("notification_dismiss_failed", "visitor_id", visitor, "error", err)
	}
	redirect(w, r, localPath(r.PostFormValue("return_to")))
}

const healthCheckTimeout = 2 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealthz reports liveness plus the state of each configured backend.
func (a *app) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	status := http.StatusOK
	if len(a.health) > 0 {
		resp.Checks = make(map[string]string, len(a.health))
		names := make([]string, 0, len(a.health))
		for name := range a.health {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := a.health[name](ctx); err != nil {
				slog.Warn("health_check_failed", "component", name, "error", err)
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	writeJSON(w, status, resp)
}

// handlePerf returns a timing snapshot. ?window=<minutes> (default 15) and
// ?top=<n> (default 10) narrow it.
func (a *app) handlePerf(w http.ResponseWriter, r *http.Request) {
	window := 15
	if v, err := strconv.Atoi(r.URL.Query().Get("window")); err == nil && v > 0 {
		window = v
	}
	top := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && v > 0 {
		top = v
	}
	since := a.now().Add(-time.Duration(window) * time.Minute)
	writeJSON(w, http.StatusOK, a.collector.Snapshot(since, top))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}
