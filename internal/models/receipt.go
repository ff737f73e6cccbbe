package models

import (
	"time"
)

const (
	FileKindPhoto    = "photo"
	FileKindDocument = "document"
)

// FileRef is an opaque reference to a file stored by the messaging
// transport. The file bytes never pass through this process.
type FileRef struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Receipt is one payment-proof submission. An order can accumulate several;
// only the most recent is presented for review.
type Receipt struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	FileID     string    `json:"file_id"`
	FileKind   string    `json:"file_kind"`
	UploadedAt time.Time `json:"uploaded_at"`
}
