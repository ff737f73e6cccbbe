package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"kassaBack/internal/models"
)

var (
	ErrProductNotFound = models.ErrProductNotFound
)

type ProductRepository struct {
	DB *sql.DB
}

// Upsert refreshes a catalog row. Title, price and targets follow the static
// catalog on every start; code is the stable identity.
func (r *ProductRepository) Upsert(ctx context.Context, product models.Product) error {
	targets, err := json.Marshal(product.Targets)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO products (code, title, price, targets)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (code) DO UPDATE SET title = EXCLUDED.title, price = EXCLUDED.price, targets = EXCLUDED.targets
	`, product.Code, product.Title, product.Price, targets)
	return err
}

// Seed upserts the whole static catalog.
func (r *ProductRepository) Seed(ctx context.Context, products []models.Product) error {
	for _, p := range products {
		if err := r.Upsert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProductRepository) GetByCode(ctx context.Context, code string) (models.Product, error) {
	var (
		product models.Product
		targets []byte
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT code, title, price, targets
		FROM products
		WHERE code = $1
	`, code).Scan(&product.Code, &product.Title, &product.Price, &targets)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, err
	}
	if err := json.Unmarshal(targets, &product.Targets); err != nil {
		return models.Product{}, err
	}
	return product, nil
}
