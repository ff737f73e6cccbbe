package models

import (
	"errors"
)

var ErrProductNotFound = errors.New("models: product not found")
var ErrOrderNotFound = errors.New("models: order not found")
var (
	ErrTokenNotFound     = errors.New("models: token not found or already used")
	ErrRequestNotFound   = errors.New("models: invoice request not found")
	ErrForbidden         = errors.New("models: forbidden")
	ErrInvalidTransition = errors.New("models: invalid status transition")
	ErrForwardSlotBusy   = errors.New("models: another receipt forward is in flight")
	ErrConsentRequired   = errors.New("models: consent required")
	ErrNoArmedOrder      = errors.New("models: no order awaiting receipt upload")
)
