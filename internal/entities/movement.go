package entities

import "time"

type MovementDirection string

const (
	MovementIn  MovementDirection = "in"
	MovementOut MovementDirection = "out"
)

// Movement records a single stock entry or exit for a product. Rows
// are append-only; quantity corrections are compensating movements.
type Movement struct {
	ID           int64             `json:"id"`
	ProductID    int64             `json:"product_id"`
	Direction    MovementDirection `json:"direction"`
	Quantity     int64             `json:"quantity"`
	UserID       int64             `json:"user_id"`
	Source       string            `json:"source,omitempty"`
	Destination  string            `json:"destination,omitempty"`
	Invoice      string            `json:"invoice,omitempty"`
	ServiceOrder string            `json:"service_order,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	MovedAt      time.Time         `json:"moved_at"`
}
