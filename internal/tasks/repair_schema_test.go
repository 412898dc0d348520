package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tavares/hospstock/internal/tenant"
)

func TestRepairSchemaProcessor(t *testing.T) {
	log := zap.NewNop().Sugar()
	registry := tenant.NewRegistry(t.TempDir(), "central.db", nil, log)
	manager := tenant.NewManager(registry, tenant.NewEngineRegistry(tenant.PoolConfig{}, log), log)
	t.Cleanup(manager.CloseAll)

	require.NoError(t, manager.Registry().RegisterUnit(tenant.Descriptor{ID: "unit_a"}))

	proc := RepairSchemaProcessor(manager)
	require.NoError(t, proc(context.Background(), RepairSchemaTask{UnitID: "unit_a"}))

	// Repair of an unregistered unit surfaces the routing error so the
	// queue can retry and eventually park the task.
	assert.Error(t, proc(context.Background(), RepairSchemaTask{UnitID: "ghost"}))
}
