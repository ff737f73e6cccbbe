package models

import (
	"time"
)

// Order represents a single purchase attempt for one catalog product.
// Amount is frozen at creation time and never recomputed, even if promo
// pricing changes afterwards.
type Order struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ProductCode string    `json:"product_code"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
