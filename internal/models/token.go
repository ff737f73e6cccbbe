package models

import (
	"time"
)

// Token is a one-time bearer credential for a downstream target bot.
// ExpiresAt == nil means the token never expires. RedeemedAt is set exactly
// once by the redemption API; a redeemed token is dead even if not expired.
type Token struct {
	Token      string     `json:"token"`
	Target     string     `json:"target"`
	UserID     int64      `json:"user_id"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}

// AccessLink pairs a target bot with the deep link a buyer opens to
// activate access. Ordering follows the product's target list.
type AccessLink struct {
	Target string `json:"target"`
	Token  string `json:"token"`
	URL    string `json:"url"`
}
