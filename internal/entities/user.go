package entities

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// User lives in the central database and is shared across all units.
// UnitAccess lists the unit ids the user may select; admins see every
// unit regardless.
type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            UserRole  `json:"role"`
	UnitAccess      []string  `json:"unit_access"`
	CanRegister     bool      `json:"can_register"`
	MenuPermissions string    `json:"menu_permissions,omitempty"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAccessUnit reports whether the user may operate on the given unit.
func (u *User) CanAccessUnit(unitID string) bool {
	if u.IsAdmin() {
		return true
	}
	for _, id := range u.UnitAccess {
		if id == unitID {
			return true
		}
	}
	return false
}
