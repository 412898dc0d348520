package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	log := zap.NewNop().Sugar()
	registry := tenant.NewRegistry(t.TempDir(), "central.db", nil, log)
	manager := tenant.NewManager(registry, tenant.NewEngineRegistry(tenant.PoolConfig{}, log), log)
	t.Cleanup(manager.CloseAll)

	require.NoError(t, registry.RegisterUnit(tenant.Descriptor{ID: "unit_test"}))
	a, err := manager.Resolve(context.Background(), "unit_test")
	require.NoError(t, err)
	return NewRepository(a)
}

func TestCreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p := &entities.Product{Name: "Gauze 10x10", Category: "dressing", Quantity: 50, MinStock: 10}
	require.NoError(t, repo.Create(ctx, p))
	assert.NotZero(t, p.ID)
	assert.True(t, p.Active)
	assert.Equal(t, "un", p.UnitOfMeasure)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gauze 10x10", got.Name)
	assert.Equal(t, int64(50), got.Quantity)
	assert.Equal(t, "dressing", got.Category)
}

func TestGetByID_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_Filters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.Product{Name: "Gauze", Category: "dressing"}))
	require.NoError(t, repo.Create(ctx, &entities.Product{Name: "Syringe 5ml", Category: "injection", Barcode: "789123"}))
	require.NoError(t, repo.Create(ctx, &entities.Product{Name: "Syringe 10ml", Category: "injection"}))

	all, err := repo.List(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	injections, err := repo.List(ctx, "injection", "")
	require.NoError(t, err)
	assert.Len(t, injections, 2)

	byName, err := repo.List(ctx, "", "Syringe")
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	byBarcode, err := repo.List(ctx, "", "789123")
	require.NoError(t, err)
	require.Len(t, byBarcode, 1)
	assert.Equal(t, "Syringe 5ml", byBarcode[0].Name)
}

func TestListLowStock(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.Product{Name: "Plenty", Quantity: 100, MinStock: 5}))
	require.NoError(t, repo.Create(ctx, &entities.Product{Name: "Scarce", Quantity: 3, MinStock: 5}))
	require.NoError(t, repo.Create(ctx, &entities.Product{Name: "Exact", Quantity: 5, MinStock: 5}))

	low, err := repo.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Exact", low[0].Name)
	assert.Equal(t, "Scarce", low[1].Name)
}

func TestUpdate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p := &entities.Product{Name: "Gauze", MinStock: 5}
	require.NoError(t, repo.Create(ctx, p))

	p.Name = "Gauze 20x20"
	p.MinStock = 8
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gauze 20x20", got.Name)
	assert.Equal(t, int64(8), got.MinStock)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Update(context.Background(), &entities.Product{ID: 42, Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p := &entities.Product{Name: "Gauze"}
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Deactivate(ctx, p.ID))

	_, err := repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deactivating twice reports not found, not silent success.
	assert.ErrorIs(t, repo.Deactivate(ctx, p.ID), ErrNotFound)
}

func TestCategories(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.Product{Name: "a", Category: "dressing"}))
	require.NoError(t, repo.Create(ctx, &entities.Product{Name: "b", Category: "dressing"}))
	require.NoError(t, repo.Create(ctx, &entities.Product{Name: "c", Category: "injection"}))
	require.NoError(t, repo.Create(ctx, &entities.Product{Name: "d"}))

	cats, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dressing", "injection"}, cats)
}
