package auth

import (
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/tavares/hospstock/internal/config"
	"github.com/tavares/hospstock/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID  = "user_id"
	SessionKeyEmail   = "email"
	SessionKeyRole    = "role"
	SessionKeyUnitID  = "unit_id"
	SessionKeyLoginAt = "login_at"
)

func init() {
	// Register types that will be stored in sessions
	gob.Register(entities.UserRole(""))
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with application-specific
// methods. Sessions persist into the central database so they survive
// restarts alongside the user accounts they belong to.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager over the
// central database handle.
func NewSessionManager(centralDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := centralDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(centralDB)

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2 // Half of lifetime for inactivity

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession creates a new session after successful authentication.
func (sm *SessionManager) CreateSession(r *http.Request, user *entities.User) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyUserID, user.ID)
	sm.Put(r.Context(), SessionKeyEmail, user.Email)
	sm.Put(r.Context(), SessionKeyRole, user.Role)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now())

	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID retrieves the user id from the session. Returns 0 if not
// authenticated.
func (sm *SessionManager) GetUserID(r *http.Request) int64 {
	return sm.GetInt64(r.Context(), SessionKeyUserID)
}

// GetEmail retrieves the email from the session.
func (sm *SessionManager) GetEmail(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyEmail)
}

// GetUserRole retrieves the user role from the session.
func (sm *SessionManager) GetUserRole(r *http.Request) entities.UserRole {
	role, ok := sm.Get(r.Context(), SessionKeyRole).(entities.UserRole)
	if !ok {
		return ""
	}
	return role
}

// SelectUnit stores the currently selected unit id. The caller must
// have verified access first.
func (sm *SessionManager) SelectUnit(r *http.Request, unitID string) {
	sm.Put(r.Context(), SessionKeyUnitID, unitID)
}

// SelectedUnit returns the unit id the session is working against, or
// "" when no unit has been selected yet.
func (sm *SessionManager) SelectedUnit(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyUnitID)
}

// ClearUnit drops the unit selection, e.g. after the unit is archived.
func (sm *SessionManager) ClearUnit(r *http.Request) {
	sm.Remove(r.Context(), SessionKeyUnitID)
}

// IsAuthenticated returns true if the request has a valid session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != 0
}
