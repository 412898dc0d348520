package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tavares/hospstock/internal/tenant"
)

type HealthResponse struct {
	Status      string            `json:"status"`
	Time        string            `json:"time"`
	Version     string            `json:"version,omitempty"`
	CachedUnits []string          `json:"cached_units"`
	Checks      map[string]string `json:"checks"`
}

type HealthController struct {
	manager *tenant.Manager
	version string
}

func NewHealthController(manager *tenant.Manager, version string) *HealthController {
	return &HealthController{
		manager: manager,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// The central database must be reachable for anything to work.
	if db, err := h.manager.CentralDB(c.Request.Context()); err != nil {
		checks["central"] = "error: " + err.Error()
		status = "unhealthy"
	} else if err := db.Ping(); err != nil {
		checks["central"] = "error: " + err.Error()
		status = "unhealthy"
	} else {
		checks["central"] = "ok"
	}

	health := HealthResponse{
		Status:      status,
		Time:        time.Now().Format(time.RFC3339),
		Version:     h.version,
		CachedUnits: h.manager.CachedUnits(),
		Checks:      checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
