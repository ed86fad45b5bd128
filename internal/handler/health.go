package handler

import (
	"context"
	"net/http"
	"time"
)

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"` // "pass" or "fail"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]Check, len(h.checks))
	healthy := true
	for name, ping := range h.checks {
		start := time.Now()
		if err := ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("check", name).Msg("health check failed")
			checks[name] = Check{Status: "fail", Message: "connection failed"}
			healthy = false
			continue
		}
		checks[name] = Check{Status: "pass", Latency: time.Since(start).String()}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
