package services

import (
	"context"

	"kassaBack/internal/models"
)

type productGetter interface {
	GetByCode(ctx context.Context, code string) (models.Product, error)
}

// PricingService resolves the authoritative price for a product code.
type PricingService struct {
	Products    productGetter
	PromoActive bool
	PromoPrices map[string]float64
}

// Resolve returns the promotional price when the promotion is active and the
// code has an override, otherwise the catalog base price. A code is either
// fully overridden or not; there are no partial promotions.
func (s *PricingService) Resolve(ctx context.Context, code string) (float64, error) {
	product, err := s.Products.GetByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if s.PromoActive {
		if override, ok := s.PromoPrices[code]; ok {
			return override, nil
		}
	}
	return product.Price, nil
}
