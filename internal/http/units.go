package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tavares/hospstock/internal/auth"
	"github.com/tavares/hospstock/internal/tenant"
)

// UnitsController manages the unit registry: listing, registration,
// metadata updates and archival.
type UnitsController struct {
	manager    *tenant.Manager
	sessions   *auth.SessionManager
	backupsDir string
	log        *zap.SugaredLogger
}

func NewUnitsController(manager *tenant.Manager, sessions *auth.SessionManager, backupsDir string, log *zap.SugaredLogger) *UnitsController {
	return &UnitsController{
		manager:    manager,
		sessions:   sessions,
		backupsDir: backupsDir,
		log:        log,
	}
}

// List returns the active units the current user may select. Admins
// see every unit, including archived ones when ?all=1 is passed.
func (uc *UnitsController) List(c *gin.Context) {
	user := auth.CurrentUser(c)

	all, err := uc.manager.Registry().ListAll()
	if err != nil {
		abortTenantError(c, err)
		return
	}

	includeArchived := user.IsAdmin() && c.Query("all") == "1"
	units := make([]tenant.Descriptor, 0, len(all))
	for _, d := range all {
		if !d.Active && !includeArchived {
			continue
		}
		if !user.CanAccessUnit(d.ID) {
			continue
		}
		units = append(units, d)
	}

	c.JSON(http.StatusOK, gin.H{"units": units})
}

type registerUnitRequest struct {
	ID          string `json:"id" binding:"required"`
	DisplayName string `json:"name"`
	Description string `json:"description"`
	Backend     string `json:"backend"`
	Locator     string `json:"locator"`
}

// Register creates a new unit and initializes its database schema.
func (uc *UnitsController) Register(c *gin.Context) {
	var req registerUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unit id is required"})
		return
	}

	desc := tenant.Descriptor{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Backend:     tenant.BackendKind(req.Backend),
		Locator:     req.Locator,
	}
	if err := uc.manager.Registry().RegisterUnit(desc); err != nil {
		abortTenantError(c, err)
		return
	}

	// Materialize the unit database up front so the first visit does
	// not pay for schema creation.
	if err := uc.manager.EnsureSchema(c.Request.Context(), req.ID); err != nil {
		uc.log.Warnw("failed to initialize unit schema", "unit", req.ID, "error", err)
	}

	created, err := uc.manager.Registry().ResolveConfig(req.ID)
	if err != nil {
		abortTenantError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"unit": created})
}

type updateUnitRequest struct {
	DisplayName string `json:"name"`
	Description string `json:"description"`
}

// Update rewrites a unit's display metadata. The id, backend and
// locator are fixed at registration time.
func (uc *UnitsController) Update(c *gin.Context) {
	unitID := c.Param("id")

	cur, err := uc.manager.Registry().ResolveConfig(unitID)
	if err != nil {
		abortTenantError(c, err)
		return
	}

	var req updateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.DisplayName != "" {
		cur.DisplayName = req.DisplayName
	}
	cur.Description = req.Description

	if err := uc.manager.Registry().UpdateUnit(cur); err != nil {
		abortTenantError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unit": cur})
}

// Archive closes the unit's connection, takes a timestamped backup of
// its database file and flags it inactive. The data file itself is
// kept.
func (uc *UnitsController) Archive(c *gin.Context) {
	unitID := c.Param("id")

	if err := uc.manager.ArchiveAndRemove(c.Request.Context(), unitID, uc.backupsDir); err != nil {
		abortTenantError(c, err)
		return
	}

	// Drop the archived unit from this session's selection.
	if uc.sessions.SelectedUnit(c.Request) == unitID {
		uc.sessions.ClearUnit(c.Request)
	}

	c.JSON(http.StatusOK, gin.H{"status": "archived", "unit": unitID})
}

// Repair re-runs idempotent schema initialization for a unit, adding
// any columns or tables the expected schema gained since the database
// was created.
func (uc *UnitsController) Repair(c *gin.Context) {
	unitID := c.Param("id")

	if err := uc.manager.EnsureSchema(c.Request.Context(), unitID); err != nil {
		abortTenantError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "repaired", "unit": unitID})
}
