package models

import (
	"time"
)

// InvoiceRequest tracks a buyer's request for the seller's fiscal receipt.
// At most one row exists per order; re-requests reopen the existing row.
type InvoiceRequest struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id"`
	RequestedAt time.Time `json:"requested_at"`
	Closed      bool      `json:"closed"`
}
