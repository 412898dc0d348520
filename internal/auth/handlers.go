package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tavares/hospstock/internal/tenant"
)

// Controller handles authentication endpoints: login, logout and unit
// selection.
type Controller struct {
	service  *Service
	sessions *SessionManager
	registry *tenant.Registry
}

func NewController(service *Service, sessions *SessionManager, registry *tenant.Registry) *Controller {
	return &Controller{
		service:  service,
		sessions: sessions,
		registry: registry,
	}
}

// RegisterRoutes registers the public authentication routes.
func (ct *Controller) RegisterRoutes(router gin.IRouter) {
	router.POST("/login", ct.Login)
	router.POST("/logout", ct.Logout)
}

// RegisterProtectedRoutes registers routes that require a session.
func (ct *Controller) RegisterProtectedRoutes(router gin.IRouter) {
	router.GET("/me", ct.Me)
	router.POST("/select-unit", ct.SelectUnit)
	router.POST("/change-password", ct.ChangePassword)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates credentials and establishes a session.
func (ct *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := ct.service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// One message for every failure mode; do not leak which field
		// was wrong.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := ct.sessions.CreateSession(c.Request, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	// Users with exactly one accessible unit skip the selection step.
	if len(user.UnitAccess) == 1 && !user.IsAdmin() {
		ct.sessions.SelectUnit(c.Request, user.UnitAccess[0])
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"selected_unit": ct.sessions.SelectedUnit(c.Request),
	})
}

// Logout destroys the session.
func (ct *Controller) Logout(c *gin.Context) {
	if err := ct.sessions.DestroySession(c.Request); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to destroy session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// Me returns the authenticated user and their current unit selection.
func (ct *Controller) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user":          CurrentUser(c),
		"selected_unit": ct.sessions.SelectedUnit(c.Request),
	})
}

type selectUnitRequest struct {
	UnitID string `json:"unit_id" binding:"required"`
}

// SelectUnit switches the session to another unit after checking the
// user's access list and the unit's registration.
func (ct *Controller) SelectUnit(c *gin.Context) {
	var req selectUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unit_id is required"})
		return
	}

	user := CurrentUser(c)
	if err := ct.service.AuthorizeUnit(user, req.UnitID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no access to this unit"})
		return
	}

	desc, err := ct.registry.ResolveConfig(req.UnitID)
	if err != nil || !desc.Active {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown unit"})
		return
	}

	ct.sessions.SelectUnit(c.Request, req.UnitID)
	c.JSON(http.StatusOK, gin.H{"selected_unit": req.UnitID})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword updates the authenticated user's password.
func (ct *Controller) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old_password and new_password are required"})
		return
	}

	user := CurrentUser(c)
	err := ct.service.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change password"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}
