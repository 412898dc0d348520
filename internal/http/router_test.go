package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tavares/hospstock/internal/auth"
	"github.com/tavares/hospstock/internal/config"
	"github.com/tavares/hospstock/internal/database/users"
	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

type fixture struct {
	router  *gin.Engine
	manager *tenant.Manager
	users   *users.Repository
	service *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop().Sugar()
	registry := tenant.NewRegistry(t.TempDir(), "central.db", nil, log)
	manager := tenant.NewManager(registry, tenant.NewEngineRegistry(tenant.PoolConfig{}, log), log)
	t.Cleanup(manager.CloseAll)

	centralDB, err := manager.CentralDB(context.Background())
	require.NoError(t, err)

	authCfg := config.Auth{BcryptCost: bcrypt.MinCost, SessionLifetime: time.Hour}
	userRepo := users.NewRepository(manager)
	service := auth.NewService(userRepo, authCfg)
	sessions, err := auth.NewSessionManager(centralDB, authCfg)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Manager:        manager,
		Users:          userRepo,
		AuthService:    service,
		SessionManager: sessions,
		AuthMiddleware: auth.NewMiddleware(service, sessions),
		BackupsDir:     "backups",
		Version:        "test",
		Log:            log,
	})

	return &fixture{router: router, manager: manager, users: userRepo, service: service}
}

func (f *fixture) do(t *testing.T, method, path, body, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// login creates the user if needed and returns its session cookie.
func (f *fixture) login(t *testing.T, email string, role entities.UserRole, unitIDs ...string) string {
	t.Helper()
	ctx := context.Background()

	user, err := f.service.CreateUser(ctx, "Test User", email, "long enough password", role)
	require.NoError(t, err)
	if len(unitIDs) > 0 {
		require.NoError(t, f.users.GrantUnits(ctx, user.ID, unitIDs))
	}

	w := f.do(t, http.MethodPost, "/login",
		`{"email":"`+email+`","password":"long enough password"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatal("login response carried no session cookie")
	return ""
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Checks["central"])
}

func TestAPIRequiresAuth(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/units", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnitRegistration(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t, "admin@x.org", entities.RoleAdmin)

	w := f.do(t, http.MethodPost, "/api/units", `{"id":"unit_a","name":"North Wing"}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate registration conflicts.
	w = f.do(t, http.MethodPost, "/api/units", `{"id":"unit_a"}`, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Malformed ids are rejected.
	w = f.do(t, http.MethodPost, "/api/units", `{"id":"no spaces allowed"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The reserved central name cannot be claimed.
	w = f.do(t, http.MethodPost, "/api/units", `{"id":"central"}`, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUnitRegistrationRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t, "user@x.org", entities.RoleUser)

	w := f.do(t, http.MethodPost, "/api/units", `{"id":"unit_a"}`, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnitListFilteredByAccess(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@x.org", entities.RoleAdmin)
	f.do(t, http.MethodPost, "/api/units", `{"id":"unit_a"}`, admin)
	f.do(t, http.MethodPost, "/api/units", `{"id":"unit_b"}`, admin)

	cookie := f.login(t, "user@x.org", entities.RoleUser, "unit_a")
	w := f.do(t, http.MethodGet, "/api/units", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Units []tenant.Descriptor `json:"units"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Units, 1)
	assert.Equal(t, "unit_a", resp.Units[0].ID)
}

func TestUnitScopedRoutesNeedSelection(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@x.org", entities.RoleAdmin)
	f.do(t, http.MethodPost, "/api/units", `{"id":"unit_a"}`, admin)

	// Admins get no auto-selection; the route conflicts until a unit
	// is chosen.
	w := f.do(t, http.MethodGet, "/api/products", "", admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/auth/select-unit", `{"unit_id":"unit_a"}`, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/products", "", admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductAndMovementFlow(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@x.org", entities.RoleAdmin)
	f.do(t, http.MethodPost, "/api/units", `{"id":"unit_a"}`, admin)
	require.Equal(t, http.StatusOK,
		f.do(t, http.MethodPost, "/api/auth/select-unit", `{"unit_id":"unit_a"}`, admin).Code)

	// Create a product with opening stock.
	w := f.do(t, http.MethodPost, "/api/products",
		`{"name":"Gauze 10x10","quantity":10,"min_stock":5,"category":"dressing"}`, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Product entities.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	productID := created.Product.ID
	require.NotZero(t, productID)

	// Stock exit within the available quantity.
	w = f.do(t, http.MethodPost, "/api/movements/exit",
		`{"product_id":1,"quantity":7,"destination":"ICU"}`, admin)
	require.Equal(t, http.StatusCreated, w.Code)

	// The product is now below its minimum.
	w = f.do(t, http.MethodGet, "/api/products/low-stock", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	var low struct {
		Products []entities.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &low))
	require.Len(t, low.Products, 1)
	assert.Equal(t, int64(3), low.Products[0].Quantity)

	// Overdraw is rejected with a conflict.
	w = f.do(t, http.MethodPost, "/api/movements/exit",
		`{"product_id":1,"quantity":99}`, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	// History shows the single exit.
	w = f.do(t, http.MethodGet, "/api/products/1/movements", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Movements []entities.Movement `json:"movements"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Movements, 1)
	assert.Equal(t, entities.MovementOut, history.Movements[0].Direction)
}

func TestUnitIsolation(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@x.org", entities.RoleAdmin)
	f.do(t, http.MethodPost, "/api/units", `{"id":"unit_a"}`, admin)
	f.do(t, http.MethodPost, "/api/units", `{"id":"unit_b"}`, admin)

	f.do(t, http.MethodPost, "/api/auth/select-unit", `{"unit_id":"unit_a"}`, admin)
	require.Equal(t, http.StatusCreated,
		f.do(t, http.MethodPost, "/api/products", `{"name":"Only in A"}`, admin).Code)

	// Switching units changes the database underneath the same routes.
	f.do(t, http.MethodPost, "/api/auth/select-unit", `{"unit_id":"unit_b"}`, admin)
	w := f.do(t, http.MethodGet, "/api/products", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Products []entities.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Products)
}

func TestArchiveUnit(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@x.org", entities.RoleAdmin)
	f.do(t, http.MethodPost, "/api/units", `{"id":"unit_a"}`, admin)
	f.do(t, http.MethodPost, "/api/auth/select-unit", `{"unit_id":"unit_a"}`, admin)

	w := f.do(t, http.MethodDelete, "/api/units/unit_a", "", admin)
	require.Equal(t, http.StatusOK, w.Code)

	// The archived unit disappears from routing.
	w = f.do(t, http.MethodGet, "/api/products", "", admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Archiving twice reports not found.
	w = f.do(t, http.MethodDelete, "/api/units/unit_a", "", admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@x.org", entities.RoleAdmin)
	f.do(t, http.MethodPost, "/api/units", `{"id":"unit_a"}`, admin)

	w := f.do(t, http.MethodPost, "/api/users",
		`{"name":"Ana","email":"ana@x.org","password":"long enough password"}`, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		User entities.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Granting access to an unregistered unit fails fast.
	w = f.do(t, http.MethodPost, "/api/users/1/units", `{"unit_ids":["ghost"]}`, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/users/2/units", `{"unit_ids":["unit_a"]}`, admin)
	assert.Equal(t, http.StatusOK, w.Code)
}
