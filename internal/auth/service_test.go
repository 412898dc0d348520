package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tavares/hospstock/internal/config"
	"github.com/tavares/hospstock/internal/database/users"
	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

func newTestService(t *testing.T) (*Service, *users.Repository) {
	t.Helper()
	log := zap.NewNop().Sugar()
	registry := tenant.NewRegistry(t.TempDir(), "central.db", nil, log)
	manager := tenant.NewManager(registry, tenant.NewEngineRegistry(tenant.PoolConfig{}, log), log)
	t.Cleanup(manager.CloseAll)

	repo := users.NewRepository(manager)
	return NewService(repo, config.Auth{BcryptCost: bcrypt.MinCost}), repo
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Ana", "ana@example.org", "long enough password", entities.RoleUser)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "long enough password", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "ana@example.org", "long enough password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ana@example.org", "wrong password here")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = svc.Authenticate(ctx, "ghost@example.org", "whatever password")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "", "a@x.org", "long enough password", entities.RoleUser)
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.CreateUser(ctx, "Ana", "", "long enough password", entities.RoleUser)
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = svc.CreateUser(ctx, "Ana", "not-an-email", "long enough password", entities.RoleUser)
	assert.ErrorIs(t, err, ErrEmailInvalid)

	_, err = svc.CreateUser(ctx, "Ana", "a@x.org", "", entities.RoleUser)
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = svc.CreateUser(ctx, "Ana", "a@x.org", "long enough password", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.CreateUser(ctx, "Ana", "a@x.org", "short", entities.RoleUser)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestCreateUser_Duplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "Ana", "ana@example.org", "long enough password", entities.RoleUser)
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "Other", "ana@example.org", "long enough password", entities.RoleUser)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Ana", "ana@example.org", "long enough password", entities.RoleUser)
	require.NoError(t, err)

	user.Active = false
	require.NoError(t, repo.Update(ctx, user))

	_, err = svc.Authenticate(ctx, "ana@example.org", "long enough password")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestAuthorizeUnit(t *testing.T) {
	svc, _ := newTestService(t)

	user := &entities.User{Role: entities.RoleUser, UnitAccess: []string{"unit_a"}}
	assert.NoError(t, svc.AuthorizeUnit(user, "unit_a"))
	assert.ErrorIs(t, svc.AuthorizeUnit(user, "unit_b"), ErrUnitNotAllowed)
	assert.ErrorIs(t, svc.AuthorizeUnit(user, ""), ErrUnitNotAllowed)

	admin := &entities.User{Role: entities.RoleAdmin}
	assert.NoError(t, svc.AuthorizeUnit(admin, "unit_b"))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Ana", "ana@example.org", "long enough password", entities.RoleUser)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong old password", "brand new password")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "long enough password", "brand new password"))

	_, err = svc.Authenticate(ctx, "ana@example.org", "brand new password")
	require.NoError(t, err)
}

func TestHasUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	has, err := svc.HasUsers(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = svc.CreateUser(ctx, "Ana", "ana@example.org", "long enough password", entities.RoleAdmin)
	require.NoError(t, err)

	has, err = svc.HasUsers(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}
