package http

import (
	"go.uber.org/zap"

	"github.com/tavares/hospstock/internal/auth"
	"github.com/tavares/hospstock/internal/config"
	"github.com/tavares/hospstock/internal/database/users"
	"github.com/tavares/hospstock/internal/tenant"
)

// RouterConfig contains all dependencies and configuration needed to
// create the HTTP router. Replaces a long parameter list in NewRouter.
type RouterConfig struct {
	// Tenant routing
	Manager *tenant.Manager

	// Central user store
	Users *users.Repository

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware

	// Archival
	BackupsDir string

	// Block writes for public demo instances
	DemoMode bool

	// Application info
	Version string

	Config *config.Config
	Log    *zap.SugaredLogger
}
