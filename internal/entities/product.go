package entities

import "time"

// Product is stored per unit. Quantity is the current stock level and
// MinStock the threshold at or below which the product counts as low.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Quantity      int64     `json:"quantity"`
	Category      string    `json:"category,omitempty"`
	Barcode       string    `json:"barcode,omitempty"`
	UnitOfMeasure string    `json:"unit_of_measure"`
	MinStock      int64     `json:"min_stock"`
	UserID        int64     `json:"user_id,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p *Product) LowStock() bool {
	return p.Quantity <= p.MinStock
}
