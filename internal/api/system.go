package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds each backend probe on /health.
const healthCheckTimeout = 2 * time.Second

func (s *Server) handleWelcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"greeting":  "Welcome to the Project Management API",
		"appStatus": "operational",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"operational": "yes",
		"checkedAt":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleHealth probes the database and the optional backends. The response
// is 503 if the database is down; optional backends only degrade it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := "ok"
	code := http.StatusOK

	probe := func(name string, hc HealthChecker, required bool) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := hc.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check failed", "component", name, "error", err)
			checks[name] = "down"
			if required {
				status, code = "unavailable", http.StatusServiceUnavailable
			} else if status == "ok" {
				status = "degraded"
			}
			return
		}
		checks[name] = "up"
	}

	if s.db != nil {
		probe("database", s.db, true)
	}
	if s.mqtt != nil {
		probe("mqtt", s.mqtt, false)
	}
	if s.metrics != nil {
		probe("influxdb", s.metrics, false)
	}
	if hc, ok := s.tickets.(HealthChecker); ok {
		probe("tickets", hc, false)
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}
