package domain

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDone      = "done"
	OrderStatusCancelled = "cancelled"
)

// Order is a persisted checkout attempt. Items holds the serialized
// cart snapshot exactly as submitted; the write path never inspects
// its structure, so consumers must re-parse it defensively.
type Order struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Items     string    `json:"items"`
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
