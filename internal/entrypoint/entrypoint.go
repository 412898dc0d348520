// Package entrypoint wires configuration, the tenant connection layer,
// authentication and the HTTP server into a running service.
package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tavares/hospstock/internal/auth"
	"github.com/tavares/hospstock/internal/config"
	"github.com/tavares/hospstock/internal/database/users"
	http_controllers "github.com/tavares/hospstock/internal/http"
	"github.com/tavares/hospstock/internal/logging"
	"github.com/tavares/hospstock/internal/tasks"
	"github.com/tavares/hospstock/internal/tenant"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts down
// gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, log *zap.SugaredLogger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Infow("starting server", "host", cfg.HTTP.Host, "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server shutdown failed", "error", err)
	}

	// Connections close after the server stops accepting requests.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("server exiting")
}

// Run builds every component from configuration and starts serving.
func Run(cfg *config.Config, version string) {
	log, err := logging.New(cfg.Global.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Infow("starting hospstock", "version", version)
	if !cfg.Global.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Global.DemoMode {
		log.Info("demo mode enabled, write operations are blocked")
	}

	manager, err := BuildManager(cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize tenant manager", "error", err)
	}
	defer manager.CloseAll()

	ctx := context.Background()

	// Materialize the central database and its schema up front; unit
	// schemas are ensured lazily on first resolve.
	centralDB, err := manager.CentralDB(ctx)
	if err != nil {
		log.Fatalw("central database unavailable", "error", err)
	}

	userRepo := users.NewRepository(manager)
	authService := auth.NewService(userRepo, cfg.Auth)

	sessionManager, err := auth.NewSessionManager(centralDB, cfg.Auth)
	if err != nil {
		log.Fatalw("failed to initialize session manager", "error", err)
	}

	if hasUsers, err := authService.HasUsers(ctx); err == nil && !hasUsers {
		log.Warn("no users found, run 'make-admin' to create an administrator account")
	}

	// Background queue for schema maintenance. On startup every active
	// unit is enqueued for reconciliation, so databases created by
	// older versions catch up with the expected schema.
	queue, err := tasks.NewClient(manager.Registry().CentralPath(), tasks.DefaultConfig(), log)
	if err != nil {
		log.Fatalw("failed to initialize task queue", "error", err)
	}
	defer queue.Close()
	queue.Register(tasks.NewRepairSchemaQueue(manager))
	queue.Start(ctx)

	if units, err := manager.Registry().ListAll(); err == nil {
		for id, desc := range units {
			if !desc.Active {
				continue
			}
			if _, err := queue.Add(tasks.RepairSchemaTask{UnitID: id}).Save(); err != nil {
				log.Warnw("failed to enqueue schema repair", "unit", id, "error", err)
			}
		}
	}

	// Periodic sweep of dead cached connections, complementing the
	// per-request liveness probes.
	var sweeper *cron.Cron
	if cfg.Maintenance.SweepEnabled {
		sweeper = cron.New()
		_, err := sweeper.AddFunc(cfg.Maintenance.SweepSchedule, func() {
			manager.Sweep(context.Background())
		})
		if err != nil {
			log.Fatalw("invalid sweep schedule", "schedule", cfg.Maintenance.SweepSchedule, "error", err)
		}
		sweeper.Start()
		log.Infow("connection sweep scheduled", "schedule", cfg.Maintenance.SweepSchedule)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Manager:        manager,
		Users:          userRepo,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: auth.NewMiddleware(authService, sessionManager),
		BackupsDir:     cfg.Database.BackupsDir,
		DemoMode:       cfg.Global.DemoMode,
		Version:        version,
		Config:         cfg,
		Log:            log,
	})

	onShutdown := func(ctx context.Context) {
		if sweeper != nil {
			<-sweeper.Stop().Done()
		}
		queue.Stop(ctx)
	}

	Serve(router, cfg, log, onShutdown)
}

// BuildManager constructs the tenant connection manager from
// configuration. Shared between the server and the CLI commands.
func BuildManager(cfg *config.Config, log *zap.SugaredLogger) (*tenant.Manager, error) {
	if err := os.MkdirAll(cfg.Database.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.Database.DataDir, err)
	}

	registry := tenant.NewRegistry(cfg.Database.DataDir, cfg.Database.CentralFile, nil, log)
	engines := tenant.NewEngineRegistry(tenant.PoolConfig{
		MinConns:          cfg.Pool.MinConns,
		MaxConns:          cfg.Pool.MaxConns,
		MaxConnLifetime:   cfg.Pool.MaxConnLifetime,
		HealthCheckPeriod: cfg.Pool.HealthCheckPeriod,
	}, log)
	return tenant.NewManager(registry, engines, log), nil
}
