// Package http wires the Gin router: authentication, unit binding and
// the JSON controllers for the inventory domain.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/tavares/hospstock/internal/auth"
	"github.com/tavares/hospstock/internal/demo"
	"github.com/tavares/hospstock/internal/tenant"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(cfg.SessionManager.SessionLoadSave())
	router.Use(demo.NewMiddleware(cfg.DemoMode).Handler())

	authController := auth.NewController(cfg.AuthService, cfg.SessionManager, cfg.Manager.Registry())
	health := NewHealthController(cfg.Manager, cfg.Version)

	// Public routes
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	authController.RegisterRoutes(router)

	// Everything below requires a session.
	api := router.Group("/api", cfg.AuthMiddleware.RequireAuth())
	authController.RegisterProtectedRoutes(api.Group("/auth"))

	// Unit registry. Listing is open to every user; mutation is
	// admin-only.
	unitsController := NewUnitsController(cfg.Manager, cfg.SessionManager, cfg.BackupsDir, cfg.Log)
	api.GET("/units", unitsController.List)
	adminUnits := api.Group("/units", cfg.AuthMiddleware.RequireAdmin())
	adminUnits.POST("", unitsController.Register)
	adminUnits.PUT("/:id", unitsController.Update)
	adminUnits.DELETE("/:id", unitsController.Archive)
	adminUnits.POST("/:id/repair", unitsController.Repair)

	// User administration
	usersController := NewUsersController(cfg.Users, cfg.AuthService, cfg.Manager.Registry())
	adminUsers := api.Group("/users", cfg.AuthMiddleware.RequireAdmin())
	adminUsers.GET("", usersController.List)
	adminUsers.POST("", usersController.Create)
	adminUsers.PUT("/:id", usersController.Update)
	adminUsers.POST("/:id/units", usersController.GrantUnits)

	// Unit-scoped routes resolve the session's selected unit to a
	// database adapter once per request.
	unitScoped := api.Group("",
		tenant.Bind(cfg.Manager, func(c *gin.Context) string {
			return cfg.SessionManager.SelectedUnit(c.Request)
		}),
		RequireUnit(),
	)

	productsController := NewProductsController()
	unitScoped.GET("/products", productsController.List)
	unitScoped.POST("/products", productsController.Create)
	unitScoped.GET("/products/low-stock", productsController.LowStock)
	unitScoped.GET("/products/categories", productsController.Categories)
	unitScoped.GET("/products/:id", productsController.Get)
	unitScoped.PUT("/products/:id", productsController.Update)
	unitScoped.DELETE("/products/:id", productsController.Delete)

	movementsController := NewMovementsController()
	unitScoped.POST("/movements/entry", movementsController.Entry)
	unitScoped.POST("/movements/exit", movementsController.Exit)
	unitScoped.GET("/movements", movementsController.List)
	unitScoped.GET("/products/:id/movements", movementsController.History)

	sectorsController := NewSectorsController()
	unitScoped.GET("/sectors", sectorsController.List)
	unitScoped.POST("/sectors", sectorsController.Create)
	unitScoped.PUT("/sectors/:id", sectorsController.Update)
	unitScoped.DELETE("/sectors/:id", sectorsController.Delete)

	suppliersController := NewSuppliersController()
	unitScoped.GET("/suppliers", suppliersController.List)
	unitScoped.POST("/suppliers", suppliersController.Create)
	unitScoped.PUT("/suppliers/:id", suppliersController.Update)
	unitScoped.DELETE("/suppliers/:id", suppliersController.Delete)

	categoriesController := NewCategoriesController()
	unitScoped.GET("/categories", categoriesController.List)
	unitScoped.POST("/categories", categoriesController.Create)
	unitScoped.PUT("/categories/:id", categoriesController.Update)
	unitScoped.DELETE("/categories/:id", categoriesController.Delete)

	return router
}
