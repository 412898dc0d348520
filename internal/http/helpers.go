package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tavares/hospstock/internal/tenant"
)

// RequireUnit rejects requests that reach a unit-scoped route without
// a working adapter: either no unit is selected yet, or the selected
// unit could not be resolved.
func RequireUnit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tenant.BoundAdapter(c) == nil {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "no unit selected",
			})
			return
		}
		c.Next()
	}
}

// tenantStatus maps tenant-layer errors onto HTTP status codes.
func tenantStatus(err error) int {
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound
	case errors.Is(err, tenant.ErrDuplicateTenant):
		return http.StatusConflict
	case errors.Is(err, tenant.ErrInvalidTenantID):
		return http.StatusBadRequest
	case errors.Is(err, tenant.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortTenantError writes the JSON error response for a tenant-layer
// failure.
func abortTenantError(c *gin.Context, err error) {
	c.JSON(tenantStatus(err), gin.H{"error": err.Error()})
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
