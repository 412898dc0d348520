package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tavares/hospstock/internal/auth"
	"github.com/tavares/hospstock/internal/database/users"
	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

// UsersController exposes admin-only user management.
type UsersController struct {
	users    *users.Repository
	service  *auth.Service
	registry *tenant.Registry
}

func NewUsersController(repo *users.Repository, service *auth.Service, registry *tenant.Registry) *UsersController {
	return &UsersController{
		users:    repo,
		service:  service,
		registry: registry,
	}
}

// List returns every user account.
func (uc *UsersController) List(c *gin.Context) {
	all, err := uc.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": all})
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// Create registers a new user account.
func (uc *UsersController) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		return
	}
	role := entities.UserRole(req.Role)
	if role == "" {
		role = entities.RoleUser
	}

	user, err := uc.service.CreateUser(c.Request.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrPasswordTooLong),
			errors.Is(err, auth.ErrEmailInvalid),
			errors.Is(err, auth.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type updateUserRequest struct {
	Name            string `json:"name"`
	Role            string `json:"role"`
	CanRegister     *bool  `json:"can_register"`
	MenuPermissions string `json:"menu_permissions"`
	Active          *bool  `json:"active"`
}

// Update rewrites a user's profile and authorization fields.
func (uc *UsersController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := uc.users.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Role != "" {
		role := entities.UserRole(req.Role)
		if role != entities.RoleAdmin && role != entities.RoleUser {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		user.Role = role
	}
	if req.CanRegister != nil {
		user.CanRegister = *req.CanRegister
	}
	if req.MenuPermissions != "" {
		user.MenuPermissions = req.MenuPermissions
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := uc.users.Update(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type grantUnitsRequest struct {
	UnitIDs []string `json:"unit_ids"`
}

// GrantUnits replaces a user's unit access list. Every id must name a
// registered unit.
func (uc *UsersController) GrantUnits(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req grantUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	for _, unitID := range req.UnitIDs {
		if _, err := uc.registry.ResolveConfig(unitID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown unit: " + unitID})
			return
		}
	}

	if err := uc.users.GrantUnits(c.Request.Context(), id, req.UnitIDs); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to grant units"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "granted", "unit_ids": req.UnitIDs})
}
