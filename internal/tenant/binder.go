package tenant

import (
	"github.com/gin-gonic/gin"
)

// ContextKeyUnitDB is the gin context key holding the request's bound
// adapter.
const ContextKeyUnitDB = "unit_db"

// UnitSelector extracts the caller's selected unit id from a request,
// typically out of the session. Empty means no selection.
type UnitSelector func(c *gin.Context) string

// Bind returns middleware that resolves the selected unit's adapter
// once per request and exposes it to downstream handlers via
// BoundAdapter. The binding is request-scoped: it is discarded at
// request end and an unfinished server transaction scope is released,
// while the underlying cached handle stays in the manager.
//
// A failed resolve binds nothing; handlers treat a nil adapter as
// "redirect to unit selection".
func Bind(m *Manager, selected UnitSelector) gin.HandlerFunc {
	return func(c *gin.Context) {
		unitID := selected(c)
		if unitID != "" {
			adapter, err := m.Resolve(c.Request.Context(), unitID)
			if err != nil {
				m.log.Warnw("failed to bind unit database", "unit", unitID, "error", err)
			} else {
				c.Set(ContextKeyUnitDB, adapter)
			}
		}

		c.Next()

		if adapter := BoundAdapter(c); adapter != nil && adapter.Backend() == BackendServer {
			_ = adapter.Close()
		}
	}
}

// BoundAdapter returns the adapter bound to this request, or nil when
// no unit is selected or binding failed.
func BoundAdapter(c *gin.Context) Adapter {
	v, ok := c.Get(ContextKeyUnitDB)
	if !ok {
		return nil
	}
	adapter, ok := v.(Adapter)
	if !ok {
		return nil
	}
	return adapter
}
