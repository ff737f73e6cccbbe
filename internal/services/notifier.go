package services

import (
	"context"

	"kassaBack/internal/models"
)

// Button is one interactive choice attached to an outbound message. Action
// carries a callback token ("confirm:<id>"), URL makes a link button; the
// two are mutually exclusive.
type Button struct {
	Label  string
	Action string
	URL    string
}

// Notifier is the outbound side of the messaging transport. Delivery is
// best-effort: callers must never roll back a state transition because a
// notification could not be sent.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string, buttons [][]Button) error
	SendFile(ctx context.Context, chatID int64, file models.FileRef, caption string, buttons [][]Button) error
}

// Logger is the minimal logging interface required by the services.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
