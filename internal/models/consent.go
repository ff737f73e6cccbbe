package models

import (
	"time"
)

// Consent records a user's one-time acceptance of the legal documents.
// First acceptance wins; the row is never mutated or deleted.
type Consent struct {
	UserID     int64     `json:"user_id"`
	AcceptedAt time.Time `json:"accepted_at"`
}
