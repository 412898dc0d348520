// Package sectors provides unit-database operations for the sectors
// that receive stock exits.
package sectors

import (
	"context"
	"errors"
	"fmt"

	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

var ErrNotFound = errors.New("sector not found")

type Repository struct {
	a tenant.Adapter
}

func NewRepository(a tenant.Adapter) *Repository {
	return &Repository{a: a}
}

func (r *Repository) Create(ctx context.Context, s *entities.Sector) error {
	err := r.a.Execute(ctx,
		`INSERT INTO sectors (name, description, responsible, active)
		 VALUES (:name, :description, :responsible, 1) RETURNING id`,
		map[string]any{
			"name":        s.Name,
			"description": s.Description,
			"responsible": s.Responsible,
		})
	if err != nil {
		return fmt.Errorf("failed to create sector: %w", err)
	}
	row, err := r.a.FetchOne()
	if err != nil {
		return err
	}
	if row != nil {
		s.ID = row.Int("id")
	}
	s.Active = true
	return r.a.Commit()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*entities.Sector, error) {
	err := r.a.Execute(ctx, "SELECT * FROM sectors WHERE id = :id AND active = 1",
		map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	row, err := r.a.FetchOne()
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return sectorFromRow(row), nil
}

func (r *Repository) List(ctx context.Context) ([]entities.Sector, error) {
	if err := r.a.Execute(ctx, "SELECT * FROM sectors WHERE active = 1 ORDER BY name"); err != nil {
		return nil, err
	}
	rows, err := r.a.FetchAll()
	if err != nil {
		return nil, err
	}
	out := make([]entities.Sector, 0, len(rows))
	for i := range rows {
		out = append(out, *sectorFromRow(&rows[i]))
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, s *entities.Sector) error {
	err := r.a.Execute(ctx,
		`UPDATE sectors SET name = :name, description = :description, responsible = :responsible
		 WHERE id = :id AND active = 1`,
		map[string]any{
			"id":          s.ID,
			"name":        s.Name,
			"description": s.Description,
			"responsible": s.Responsible,
		})
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
	err := r.a.Execute(ctx, "UPDATE sectors SET active = 0 WHERE id = :id AND active = 1",
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

func sectorFromRow(row *tenant.Row) *entities.Sector {
	return &entities.Sector{
		ID:          row.Int("id"),
		Name:        row.String("name"),
		Description: row.String("description"),
		Responsible: row.String("responsible"),
		Active:      row.Bool("active"),
	}
}
