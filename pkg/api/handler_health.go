package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck is one named subsystem's status.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]HealthCheck `json:"checks"`
}

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health the way the teacher's
// handler_health.go does: a minimal, unauthenticated readiness check of
// this process's own dependencies, never the LLM provider or an agent's
// work directory.
func (s *Server) healthHandler(c *gin.Context) {
	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	switch {
	case s.store == nil:
		checks["database"] = HealthCheck{Status: healthStatusDegraded, Message: "no store configured"}
	default:
		if err := s.store.DB().PingContext(c.Request.Context()); err != nil {
			status = healthStatusUnhealthy
			checks["database"] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
		} else {
			checks["database"] = HealthCheck{Status: healthStatusHealthy}
		}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, HealthResponse{Status: status, Checks: checks})
}
