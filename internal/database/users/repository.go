// Package users provides central-database operations for user accounts.
//
// # Usage
//
//	repo := users.NewRepository(manager)
//	user, err := repo.GetByEmail(ctx, email)
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/tavares/hospstock/internal/access"
	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository handles all user database operations. Users live in the
// central database, never in a unit database.
type Repository struct {
	manager *tenant.Manager
}

// NewRepository creates a new users repository.
func NewRepository(m *tenant.Manager) *Repository {
	return &Repository{manager: m}
}

func (r *Repository) central(ctx context.Context) (tenant.Adapter, error) {
	return r.manager.Resolve(ctx, "")
}

// Create inserts the user and fills in its id.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	a, err := r.central(ctx)
	if err != nil {
		return err
	}

	if existing, err := r.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		return ErrDuplicateEmail
	}

	if user.Role == "" {
		user.Role = entities.RoleUser
	}
	err = a.Execute(ctx,
		`INSERT INTO users (name, email, password, role, unit_access, can_register, menu_permissions, active)
		 VALUES (:name, :email, :password, :role, :unit_access, :can_register, :menu_permissions, 1)
		 RETURNING id`,
		map[string]any{
			"name":             user.Name,
			"email":            user.Email,
			"password":         user.PasswordHash,
			"role":             string(user.Role),
			"unit_access":      access.Encode(user.UnitAccess),
			"can_register":     boolInt(user.CanRegister),
			"menu_permissions": user.MenuPermissions,
		})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	row, err := a.FetchOne()
	if err != nil {
		return err
	}
	if row != nil {
		user.ID = row.Int("id")
	}
	user.Active = true
	return a.Commit()
}

// GetByID retrieves a user by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	return r.getOne(ctx, "SELECT * FROM users WHERE id = :id", map[string]any{"id": id})
}

// GetByEmail retrieves a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.getOne(ctx, "SELECT * FROM users WHERE email = :email", map[string]any{"email": email})
}

func (r *Repository) getOne(ctx context.Context, query string, args map[string]any) (*entities.User, error) {
	a, err := r.central(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.Execute(ctx, query, args); err != nil {
		return nil, err
	}
	row, err := a.FetchOne()
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return userFromRow(row), nil
}

// List returns every user ordered by name.
func (r *Repository) List(ctx context.Context) ([]entities.User, error) {
	a, err := r.central(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.Execute(ctx, "SELECT * FROM users ORDER BY name"); err != nil {
		return nil, err
	}
	rows, err := a.FetchAll()
	if err != nil {
		return nil, err
	}
	out := make([]entities.User, 0, len(rows))
	for i := range rows {
		out = append(out, *userFromRow(&rows[i]))
	}
	return out, nil
}

// Update rewrites the user's mutable fields.
func (r *Repository) Update(ctx context.Context, user *entities.User) error {
	a, err := r.central(ctx)
	if err != nil {
		return err
	}
	err = a.Execute(ctx,
		`UPDATE users SET name = :name, email = :email, role = :role,
		        unit_access = :unit_access, can_register = :can_register,
		        menu_permissions = :menu_permissions, active = :active
		 WHERE id = :id`,
		map[string]any{
			"id":               user.ID,
			"name":             user.Name,
			"email":            user.Email,
			"role":             string(user.Role),
			"unit_access":      access.Encode(user.UnitAccess),
			"can_register":     boolInt(user.CanRegister),
			"menu_permissions": user.MenuPermissions,
			"active":           boolInt(user.Active),
		})
	if err != nil {
		return err
	}
	if a.RowsAffected() == 0 {
		_ = a.Rollback()
		return ErrNotFound
	}
	return a.Commit()
}

// SetPassword replaces the stored password hash.
func (r *Repository) SetPassword(ctx context.Context, id int64, hash string) error {
	a, err := r.central(ctx)
	if err != nil {
		return err
	}
	err = a.Execute(ctx, "UPDATE users SET password = :password WHERE id = :id",
		map[string]any{"id": id, "password": hash})
	if err != nil {
		return err
	}
	if a.RowsAffected() == 0 {
		_ = a.Rollback()
		return ErrNotFound
	}
	return a.Commit()
}

// SetRole promotes or demotes a user.
func (r *Repository) SetRole(ctx context.Context, id int64, role entities.UserRole) error {
	a, err := r.central(ctx)
	if err != nil {
		return err
	}
	err = a.Execute(ctx, "UPDATE users SET role = :role WHERE id = :id",
		map[string]any{"id": id, "role": string(role)})
	if err != nil {
		return err
	}
	if a.RowsAffected() == 0 {
		_ = a.Rollback()
		return ErrNotFound
	}
	return a.Commit()
}

// GrantUnits replaces the user's unit access list.
func (r *Repository) GrantUnits(ctx context.Context, id int64, unitIDs []string) error {
	a, err := r.central(ctx)
	if err != nil {
		return err
	}
	err = a.Execute(ctx, "UPDATE users SET unit_access = :unit_access WHERE id = :id",
		map[string]any{"id": id, "unit_access": access.Encode(unitIDs)})
	if err != nil {
		return err
	}
	if a.RowsAffected() == 0 {
		_ = a.Rollback()
		return ErrNotFound
	}
	return a.Commit()
}

// Count returns the number of registered users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	a, err := r.central(ctx)
	if err != nil {
		return 0, err
	}
	if err := a.Execute(ctx, "SELECT COUNT(*) AS n FROM users"); err != nil {
		return 0, err
	}
	row, err := a.FetchOne()
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	return row.Int("n"), nil
}

func userFromRow(row *tenant.Row) *entities.User {
	return &entities.User{
		ID:              row.Int("id"),
		Name:            row.String("name"),
		Email:           row.String("email"),
		PasswordHash:    row.String("password"),
		Role:            entities.UserRole(row.String("role")),
		UnitAccess:      access.Decode(row.String("unit_access")),
		CanRegister:     row.Bool("can_register"),
		MenuPermissions: row.String("menu_permissions"),
		Active:          row.Bool("active"),
		CreatedAt:       row.Time("created_at"),
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
