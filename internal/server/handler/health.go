package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks one infrastructure dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler creates a HealthHandler over named dependencies. Nil
// pingers are skipped so optional infrastructure can be left unwired.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// healthResponse reports per-dependency status.
type healthResponse struct {
	Status string            `json:"status"`
	Deps   map[string]string `json:"deps,omitempty"`
}

// HealthCheck pings every dependency with a short deadline.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Deps: make(map[string]string)}
	status := http.StatusOK

	for name, dep := range h.deps {
		if dep == nil {
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			resp.Deps[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			resp.Deps[name] = "ok"
		}
	}

	writeJSON(w, status, resp)
}
