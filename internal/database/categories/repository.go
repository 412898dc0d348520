// Package categories provides unit-database operations for product
// categories.
package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

var ErrNotFound = errors.New("category not found")

type Repository struct {
	a tenant.Adapter
}

func NewRepository(a tenant.Adapter) *Repository {
	return &Repository{a: a}
}

func (r *Repository) Create(ctx context.Context, c *entities.Category) error {
	err := r.a.Execute(ctx,
		"INSERT INTO categories (name, description, active) VALUES (:name, :description, 1) RETURNING id",
		map[string]any{"name": c.Name, "description": c.Description})
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	row, err := r.a.FetchOne()
	if err != nil {
		return err
	}
	if row != nil {
		c.ID = row.Int("id")
	}
	c.Active = true
	return r.a.Commit()
}

func (r *Repository) List(ctx context.Context) ([]entities.Category, error) {
	if err := r.a.Execute(ctx, "SELECT * FROM categories WHERE active = 1 ORDER BY name"); err != nil {
		return nil, err
	}
	rows, err := r.a.FetchAll()
	if err != nil {
		return nil, err
	}
	out := make([]entities.Category, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		out = append(out, entities.Category{
			ID:          row.Int("id"),
			Name:        row.String("name"),
			Description: row.String("description"),
			Active:      row.Bool("active"),
		})
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, c *entities.Category) error {
	err := r.a.Execute(ctx,
		"UPDATE categories SET name = :name, description = :description WHERE id = :id AND active = 1",
		map[string]any{"id": c.ID, "name": c.Name, "description": c.Description})
	if err != nil {
		return err
	}
	if r.a.RowsAffected() == 0 {
		_ = r.a.Rollback()
		return ErrNotFound
	}
	return r.a.Commit()
}

func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	err := r.a.Execute(ctx, "UPDATE categories SET active = 0 WHERE id = :id AND active = 1",
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	if r.a.RowsAffected() == 0 {
		_ = r.a.Rollback()
		return ErrNotFound
	}
	return r.a.Commit()
}
