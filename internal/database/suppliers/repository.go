// Package suppliers provides unit-database operations for suppliers.
package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

var ErrNotFound = errors.New("supplier not found")

type Repository struct {
	a tenant.Adapter
}

func NewRepository(a tenant.Adapter) *Repository {
	return &Repository{a: a}
}

func (r *Repository) Create(ctx context.Context, s *entities.Supplier) error {
	err := r.a.Execute(ctx,
		`INSERT INTO suppliers (name, tax_id, phone, email, address, active)
		 VALUES (:name, :tax_id, :phone, :email, :address, 1) RETURNING id`,
		map[string]any{
			"name":    s.Name,
			"tax_id":  s.TaxID,
			"phone":   s.Phone,
			"email":   s.Email,
			"address": s.Address,
		})
	if err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
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

func (r *Repository) GetByID(ctx context.Context, id int64) (*entities.Supplier, error) {
	err := r.a.Execute(ctx, "SELECT * FROM suppliers WHERE id = :id AND active = 1",
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
	return supplierFromRow(row), nil
}

func (r *Repository) List(ctx context.Context) ([]entities.Supplier, error) {
	if err := r.a.Execute(ctx, "SELECT * FROM suppliers WHERE active = 1 ORDER BY name"); err != nil {
		return nil, err
	}
	rows, err := r.a.FetchAll()
	if err != nil {
		return nil, err
	}
	out := make([]entities.Supplier, 0, len(rows))
	for i := range rows {
		out = append(out, *supplierFromRow(&rows[i]))
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, s *entities.Supplier) error {
	err := r.a.Execute(ctx,
		`UPDATE suppliers SET name = :name, tax_id = :tax_id, phone = :phone,
		        email = :email, address = :address
		 WHERE id = :id AND active = 1`,
		map[string]any{
			"id":      s.ID,
			"name":    s.Name,
			"tax_id":  s.TaxID,
			"phone":   s.Phone,
			"email":   s.Email,
			"address": s.Address,
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
	err := r.a.Execute(ctx, "UPDATE suppliers SET active = 0 WHERE id = :id AND active = 1",
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

func supplierFromRow(row *tenant.Row) *entities.Supplier {
	return &entities.Supplier{
		ID:      row.Int("id"),
		Name:    row.String("name"),
		TaxID:   row.String("tax_id"),
		Phone:   row.String("phone"),
		Email:   row.String("email"),
		Address: row.String("address"),
		Active:  row.Bool("active"),
	}
}
