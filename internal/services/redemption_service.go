package services

import (
	"context"

	"kassaBack/internal/models"
)

type tokenRedeemer interface {
	Redeem(ctx context.Context, token, target string) (models.Token, error)
	IsAllowed(ctx context.Context, userID int64, target string) (bool, error)
}

// RedemptionService serves the downstream target bots: a token is a one-time
// bearer credential, dead after first successful use even if not expired.
type RedemptionService struct {
	TokenRepo tokenRedeemer
}

func (s *RedemptionService) Redeem(ctx context.Context, token, target string) (models.Token, error) {
	return s.TokenRepo.Redeem(ctx, token, target)
}

func (s *RedemptionService) Allowed(ctx context.Context, userID int64, target string) (bool, error) {
	return s.TokenRepo.IsAllowed(ctx, userID, target)
}
