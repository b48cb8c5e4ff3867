package health

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// HealthResponse is the JSON body of the probe endpoints.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Checks  map[string]CheckStatus `json:"checks,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// CheckStatus is one check in a health response.
type CheckStatus struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// LivenessHandler answers 200 while the process is alive, 503 otherwise.
func (h *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := h.CheckLiveness(r.Context())
		h.write(w, status, err)
	}
}

// ReadinessHandler answers 200 when dependencies are reachable, 503 otherwise.
func (h *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := h.CheckReadiness(r.Context())
		h.write(w, status, err)
	}
}

// Mount registers /health/live and /health/ready on r.
func (h *HealthChecker) Mount(r chi.Router) {
	r.Get("/health/live", h.LivenessHandler())
	r.Get("/health/ready", h.ReadinessHandler())
}

func (h *HealthChecker) write(w http.ResponseWriter, status *HealthStatus, err error) {
	response := HealthResponse{Status: "healthy", Checks: make(map[string]CheckStatus, len(status.Checks))}
	code := http.StatusOK
	if !status.Healthy {
		response.Status = "unhealthy"
		code = http.StatusServiceUnavailable
		if err != nil {
			response.Message = err.Error()
		}
	}
	for _, c := range status.Checks {
		cs := CheckStatus{Status: "ok", Latency: c.Latency.String()}
		if !c.Healthy {
			cs.Status = "error"
			cs.Error = c.Error
		}
		response.Checks[c.Name] = cs
	}

	body, encErr := json.Marshal(response)
	if encErr != nil {
		h.logger.Error("Failed to encode health response", logger.ErrorField(encErr))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
