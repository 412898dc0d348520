// Package movements provides unit-database operations for stock
// entries and exits. Recording a movement adjusts the product's
// quantity in the same scope.
package movements

import (
	"context"
	"errors"
	"fmt"

	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/tenant"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock for exit")
	ErrInvalidQuantity   = errors.New("movement quantity must be positive")
	ErrInvalidDirection  = errors.New("movement direction must be in or out")
)

type Repository struct {
	a tenant.Adapter
}

func NewRepository(a tenant.Adapter) *Repository {
	return &Repository{a: a}
}

// Record validates the movement, adjusts the product's stock level and
// appends the movement row. Exits that would drive the quantity
// negative are rejected without writing anything.
func (r *Repository) Record(ctx context.Context, m *entities.Movement) error {
	if m.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if m.Direction != entities.MovementIn && m.Direction != entities.MovementOut {
		return ErrInvalidDirection
	}

	// The adjustment goes first and carries its own guard, so two
	// concurrent exits cannot both pass a read check and overdraw the
	// stock. Zero affected rows means the product is gone or the exit
	// would go negative.
	adjust := "UPDATE products SET quantity = quantity + :q, updated_at = CURRENT_TIMESTAMP WHERE id = :id AND active = 1"
	if m.Direction == entities.MovementOut {
		adjust = "UPDATE products SET quantity = quantity - :q, updated_at = CURRENT_TIMESTAMP WHERE id = :id AND active = 1 AND quantity >= :q"
	}
	if err := r.a.Execute(ctx, adjust, map[string]any{"id": m.ProductID, "q": m.Quantity}); err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if r.a.RowsAffected() == 0 {
		return r.rejectReason(ctx, m)
	}

	err := r.a.Execute(ctx,
		`INSERT INTO stock_movements (product_id, direction, quantity, user_id, source, destination, invoice, service_order, reason)
		 VALUES (:product_id, :direction, :quantity, :user_id, :source, :destination, :invoice, :service_order, :reason)
		 RETURNING id`,
		map[string]any{
			"product_id":    m.ProductID,
			"direction":     string(m.Direction),
			"quantity":      m.Quantity,
			"user_id":       m.UserID,
			"source":        m.Source,
			"destination":   m.Destination,
			"invoice":       m.Invoice,
			"service_order": m.ServiceOrder,
			"reason":        m.Reason,
		})
	if err != nil {
		r.compensate(ctx, m)
		return fmt.Errorf("failed to record movement: %w", err)
	}
	if idRow, err := r.a.FetchOne(); err != nil {
		r.compensate(ctx, m)
		return err
	} else if idRow != nil {
		m.ID = idRow.Int("id")
	}
	return r.a.Commit()
}

// rejectReason distinguishes a missing product from an overdrawn exit
// after a guarded adjustment matched no rows.
func (r *Repository) rejectReason(ctx context.Context, m *entities.Movement) error {
	err := r.a.Execute(ctx,
		"SELECT quantity FROM products WHERE id = :id AND active = 1",
		map[string]any{"id": m.ProductID})
	if err != nil {
		return err
	}
	row, err := r.a.FetchOne()
	if err != nil {
		return err
	}
	if row == nil {
		return ErrProductNotFound
	}
	return fmt.Errorf("%w: have %d, want %d", ErrInsufficientStock, row.Int("quantity"), m.Quantity)
}

// compensate puts the stock level back when the movement row could not
// be written after the adjustment. On the embedded backend each
// statement has already committed, so the reversal is a real write;
// on the server backend the rollback reverts the whole scope and the
// reversal is a no-op inside the doomed transaction. Best-effort.
func (r *Repository) compensate(ctx context.Context, m *entities.Movement) {
	delta := -m.Quantity
	if m.Direction == entities.MovementOut {
		delta = m.Quantity
	}
	_ = r.a.Execute(ctx,
		"UPDATE products SET quantity = quantity + :delta WHERE id = :id",
		map[string]any{"id": m.ProductID, "delta": delta})
	_ = r.a.Rollback()
}

// ListByProduct returns the movement history of one product, newest
// first.
func (r *Repository) ListByProduct(ctx context.Context, productID int64, limit int) ([]entities.Movement, error) {
	if limit <= 0 {
		limit = 100
	}
	err := r.a.Execute(ctx,
		"SELECT * FROM stock_movements WHERE product_id = :product_id ORDER BY moved_at DESC, id DESC LIMIT :limit",
		map[string]any{"product_id": productID, "limit": limit})
	if err != nil {
		return nil, err
	}
	rows, err := r.a.FetchAll()
	if err != nil {
		return nil, err
	}
	return movementsFromRows(rows), nil
}

// List returns recent movements across all products, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]entities.Movement, error) {
	if limit <= 0 {
		limit = 100
	}
	err := r.a.Execute(ctx,
		"SELECT * FROM stock_movements ORDER BY moved_at DESC, id DESC LIMIT :limit",
		map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	rows, err := r.a.FetchAll()
	if err != nil {
		return nil, err
	}
	return movementsFromRows(rows), nil
}

func movementsFromRows(rows []tenant.Row) []entities.Movement {
	out := make([]entities.Movement, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		out = append(out, entities.Movement{
			ID:           row.Int("id"),
			ProductID:    row.Int("product_id"),
			Direction:    entities.MovementDirection(row.String("direction")),
			Quantity:     row.Int("quantity"),
			UserID:       row.Int("user_id"),
			Source:       row.String("source"),
			Destination:  row.String("destination"),
			Invoice:      row.String("invoice"),
			ServiceOrder: row.String("service_order"),
			Reason:       row.String("reason"),
			MovedAt:      row.Time("moved_at"),
		})
	}
	return out
}
