package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// HealthCheck returns a simple health status for monitoring.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy", "version": Version})
}

// HealthCheckWith is HealthCheck that first runs check, answering 503 when
// it fails.
func HealthCheckWith(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := check(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "health check failed", "error", err)
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "version": Version})
			return
		}
		HealthCheck(w, r)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(r.Context(), "failed to write JSON response", "path", r.URL.Path, "error", err)
	}
}
