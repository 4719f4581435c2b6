package api

import (
	"net/http"
	"time"

	"github.com/glglak/elastic-personalization-poc/internal/api/respond"
)

// HealthReporter is the aggregated dependency health of the service.
type HealthReporter interface {
	IsHealthy() bool
	Components() map[string]bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	reporter HealthReporter
}

// NewHealthHandler creates a new health handler. A nil reporter reports unhealthy.
func NewHealthHandler(r HealthReporter) *HealthHandler { return &HealthHandler{reporter: r} }

type healthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// CheckHealth handles GET /api/health
// Returns 200 when every dependency is healthy and 503 otherwise; the body lists each component.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "unhealthy", Timestamp: time.Now().Format(time.RFC3339)}
	code := http.StatusServiceUnavailable
	if h.reporter != nil {
		if h.reporter.IsHealthy() {
			resp.Status = "healthy"
			code = http.StatusOK
		}
		comps := h.reporter.Components()
		resp.Components = make(map[string]string, len(comps))
		for name, ok := range comps {
			resp.Components[name] = statusWord(ok)
		}
	}
	respond.WriteJSON(w, code, resp)
}

func statusWord(ok bool) string {
	if ok {
		return "healthy"
	}
	return "unhealthy"
}
