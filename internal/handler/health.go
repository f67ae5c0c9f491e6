package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/pkg/health"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

type HealthHandler struct {
	monitor *health.Monitor
}

type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status    string `json:"status"`
	Required  bool   `json:"required"`
	LatencyMS int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

func NewHealthHandler(monitor *health.Monitor) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// HealthCheck probes every dependency. It answers 503 when a required one
// is down.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	report := h.monitor.CheckNow(ctx)

	response := HealthCheckResponse{
		Status:    "healthy",
		Version:   constants.AppVersion,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]HealthCheck, len(report.Results)),
	}
	for name, r := range report.Results {
		check := HealthCheck{
			Status:    r.Status.String(),
			Required:  r.Required,
			LatencyMS: r.Latency.Milliseconds(),
		}
		if r.LastError != nil {
			check.Message = r.LastError.Error()
		}
		response.Checks[name] = check
	}

	statusCode := http.StatusOK
	if !report.Healthy {
		response.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	logger.DebugWithContext(ctx, "Health check performed").
		String("overall_status", response.Status).
		StatusCode(statusCode).
		Log()

	c.JSON(statusCode, response)
}
