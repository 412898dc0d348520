package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolConfig bounds the per-unit PostgreSQL connection pools. Pool
// size and recycling are configuration, never per-call parameters.
type PoolConfig struct {
	MinConns          int32
	MaxConns          int32
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// EngineRegistry keeps exactly one pooled engine per server-backed
// unit id. Pools validate connections in the background and recycle
// them after MaxConnLifetime.
type EngineRegistry struct {
	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
	cfg   PoolConfig
	log   *zap.SugaredLogger
}

func NewEngineRegistry(cfg PoolConfig, log *zap.SugaredLogger) *EngineRegistry {
	if cfg.MinConns == 0 {
		cfg.MinConns = 2
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 10
	}
	return &EngineRegistry{
		pools: make(map[string]*pgxpool.Pool),
		cfg:   cfg,
		log:   log,
	}
}

// Engine returns the pool for a unit, creating it on first use.
// created reports whether this call built the pool, so the caller
// knows when schema initialization is due.
func (e *EngineRegistry) Engine(ctx context.Context, unitID, dsn string) (pool *pgxpool.Pool, created bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pool, ok := e.pools[unitID]; ok {
		return pool, false, nil
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, false, fmt.Errorf("%w: bad connection string for %s: %v", ErrBackendUnavailable, unitID, err)
	}
	poolCfg.MinConns = e.cfg.MinConns
	poolCfg.MaxConns = e.cfg.MaxConns
	if e.cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = e.cfg.MaxConnLifetime
	}
	if e.cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = e.cfg.HealthCheckPeriod
	}

	pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	e.pools[unitID] = pool
	e.log.Infow("engine created", "unit", unitID, "max_conns", poolCfg.MaxConns)
	return pool, true, nil
}

// Close drops and closes the pool for a unit. Best-effort.
func (e *EngineRegistry) Close(unitID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pool, ok := e.pools[unitID]; ok {
		pool.Close()
		delete(e.pools, unitID)
	}
}

// CloseAll drains every pool. Called on shutdown.
func (e *EngineRegistry) CloseAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, pool := range e.pools {
		pool.Close()
		delete(e.pools, id)
	}
}
