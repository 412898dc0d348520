// Package products provides unit-database operations for the product
// catalog. A Repository wraps the adapter bound to the request's
// selected unit; it is cheap to construct per request.
package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

var ErrNotFound = errors.New("product not found")

type Repository struct {
	a tenant.Adapter
}

func NewRepository(a tenant.Adapter) *Repository {
	return &Repository{a: a}
}

// Create inserts the product and fills in its id.
func (r *Repository) Create(ctx context.Context, p *entities.Product) error {
	if p.UnitOfMeasure == "" {
		p.UnitOfMeasure = "un"
	}
	err := r.a.Execute(ctx,
		`INSERT INTO products (name, description, quantity, category, barcode, unit_of_measure, min_stock, user_id, active)
		 VALUES (:name, :description, :quantity, :category, :barcode, :unit_of_measure, :min_stock, :user_id, 1)
		 RETURNING id`,
		map[string]any{
			"name":            p.Name,
			"description":     p.Description,
			"quantity":        p.Quantity,
			"category":        p.Category,
			"barcode":         p.Barcode,
			"unit_of_measure": p.UnitOfMeasure,
			"min_stock":       p.MinStock,
			"user_id":         p.UserID,
		})
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	row, err := r.a.FetchOne()
	if err != nil {
		return err
	}
	if row != nil {
		p.ID = row.Int("id")
	}
	p.Active = true
	return r.a.Commit()
}

// GetByID retrieves an active product by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entities.Product, error) {
	err := r.a.Execute(ctx, "SELECT * FROM products WHERE id = :id AND active = 1",
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
	return productFromRow(row), nil
}

// List returns active products ordered by name, optionally filtered by
// category or a name/barcode search term.
func (r *Repository) List(ctx context.Context, category, search string) ([]entities.Product, error) {
	query := "SELECT * FROM products WHERE active = 1"
	args := map[string]any{}
	if category != "" {
		query += " AND category = :category"
		args["category"] = category
	}
	if search != "" {
		query += " AND (name LIKE :search OR barcode = :exact)"
		args["search"] = "%" + search + "%"
		args["exact"] = search
	}
	query += " ORDER BY name"

	var err error
	if len(args) > 0 {
		err = r.a.Execute(ctx, query, args)
	} else {
		err = r.a.Execute(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.a.FetchAll()
	if err != nil {
		return nil, err
	}
	return productsFromRows(rows), nil
}

// ListLowStock returns active products at or below their minimum.
func (r *Repository) ListLowStock(ctx context.Context) ([]entities.Product, error) {
	err := r.a.Execute(ctx,
		"SELECT * FROM products WHERE active = 1 AND quantity <= min_stock ORDER BY name")
	if err != nil {
		return nil, err
	}
	rows, err := r.a.FetchAll()
	if err != nil {
		return nil, err
	}
	return productsFromRows(rows), nil
}

// Update rewrites the product's descriptive fields. Quantity changes
// go through stock movements, never through Update.
func (r *Repository) Update(ctx context.Context, p *entities.Product) error {
	err := r.a.Execute(ctx,
		`UPDATE products SET name = :name, description = :description, category = :category,
		        barcode = :barcode, unit_of_measure = :unit_of_measure, min_stock = :min_stock,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = :id AND active = 1`,
		map[string]any{
			"id":              p.ID,
			"name":            p.Name,
			"description":     p.Description,
			"category":        p.Category,
			"barcode":         p.Barcode,
			"unit_of_measure": p.UnitOfMeasure,
			"min_stock":       p.MinStock,
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

// Deactivate soft-deletes a product. Movement history stays intact.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	err := r.a.Execute(ctx,
		"UPDATE products SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = :id AND active = 1",
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

// Categories returns the distinct category names in use.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	err := r.a.Execute(ctx,
		"SELECT DISTINCT category FROM products WHERE active = 1 AND category != '' ORDER BY category")
	if err != nil {
		return nil, err
	}
	rows, err := r.a.FetchAll()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].String("category"))
	}
	return out, nil
}

func productFromRow(row *tenant.Row) *entities.Product {
	return &entities.Product{
		ID:            row.Int("id"),
		Name:          row.String("name"),
		Description:   row.String("description"),
		Quantity:      row.Int("quantity"),
		Category:      row.String("category"),
		Barcode:       row.String("barcode"),
		UnitOfMeasure: row.String("unit_of_measure"),
		MinStock:      row.Int("min_stock"),
		UserID:        row.Int("user_id"),
		Active:        row.Bool("active"),
		CreatedAt:     row.Time("created_at"),
		UpdatedAt:     row.Time("updated_at"),
	}
}

func productsFromRows(rows []tenant.Row) []entities.Product {
	out := make([]entities.Product, 0, len(rows))
	for i := range rows {
		out = append(out, *productFromRow(&rows[i]))
	}
	return out
}
