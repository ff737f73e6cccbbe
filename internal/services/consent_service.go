package services

import (
	"context"
)

type consentStore interface {
	Record(ctx context.Context, userID int64) error
	HasConsented(ctx context.Context, userID int64) (bool, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
}

type ConsentService struct {
	ConsentRepo consentStore
}

// Record stores the user's acceptance. Repeated calls are no-ops.
func (s *ConsentService) Record(ctx context.Context, userID int64) error {
	return s.ConsentRepo.Record(ctx, userID)
}

func (s *ConsentService) HasConsented(ctx context.Context, userID int64) (bool, error) {
	return s.ConsentRepo.HasConsented(ctx, userID)
}

func (s *ConsentService) ListUserIDs(ctx context.Context) ([]int64, error) {
	return s.ConsentRepo.ListUserIDs(ctx)
}
