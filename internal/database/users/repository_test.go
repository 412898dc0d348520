package users

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
	return NewRepository(manager)
}

func TestCreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := &entities.User{
		Name:         "Ana",
		Email:        "ana@example.org",
		PasswordHash: "hashed",
		UnitAccess:   []string{"unit_a", "unit_b"},
		CanRegister:  true,
	}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.True(t, u.Active)
	assert.Equal(t, entities.RoleUser, u.Role)

	got, err := repo.GetByEmail(ctx, "ana@example.org")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, []string{"unit_a", "unit_b"}, got.UnitAccess)
	assert.True(t, got.CanRegister)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", byID.Name)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.User{Name: "Ana", Email: "ana@example.org", PasswordHash: "h"}))
	err := repo.Create(ctx, &entities.User{Name: "Other", Email: "ana@example.org", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGet_NotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "ghost@example.org")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.User{Name: "Zoe", Email: "zoe@x", PasswordHash: "h"}))
	require.NoError(t, repo.Create(ctx, &entities.User{Name: "Ana", Email: "ana@x", PasswordHash: "h"}))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana", all[0].Name)
	assert.Equal(t, "Zoe", all[1].Name)
}

func TestUpdate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := &entities.User{Name: "Ana", Email: "ana@x", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))

	u.Name = "Ana Maria"
	u.Role = entities.RoleAdmin
	u.UnitAccess = []string{"unit_c"}
	require.NoError(t, repo.Update(ctx, u))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.Equal(t, entities.RoleAdmin, got.Role)
	assert.Equal(t, []string{"unit_c"}, got.UnitAccess)

	assert.ErrorIs(t, repo.Update(ctx, &entities.User{ID: 999, Email: "g@x"}), ErrNotFound)
}

func TestSetPasswordAndRole(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := &entities.User{Name: "Ana", Email: "ana@x", PasswordHash: "old"}
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.SetPassword(ctx, u.ID, "new"))
	require.NoError(t, repo.SetRole(ctx, u.ID, entities.RoleAdmin))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)
	assert.True(t, got.IsAdmin())

	assert.ErrorIs(t, repo.SetPassword(ctx, 999, "x"), ErrNotFound)
	assert.ErrorIs(t, repo.SetRole(ctx, 999, entities.RoleAdmin), ErrNotFound)
}

func TestGrantUnits(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := &entities.User{Name: "Ana", Email: "ana@x", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.GrantUnits(ctx, u.ID, []string{"unit_a", "unit_b"}))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"unit_a", "unit_b"}, got.UnitAccess)

	assert.ErrorIs(t, repo.GrantUnits(ctx, 999, nil), ErrNotFound)
}

func TestCount(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.Create(ctx, &entities.User{Name: "Ana", Email: "ana@x", PasswordHash: "h"}))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
