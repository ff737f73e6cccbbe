package repositories

import (
	"context"
	"database/sql"

	"kassaBack/internal/fsm"
	"kassaBack/internal/models"
)

var (
	ErrOrderNotFound = models.ErrOrderNotFound
)

type OrderRepository struct {
	DB *sql.DB
}

// Create inserts a new order in pending status with the amount frozen at the
// price the caller resolved.
func (r *OrderRepository) Create(ctx context.Context, userID int64, productCode string, amount float64) (models.Order, error) {
	order := models.Order{
		UserID:      userID,
		ProductCode: productCode,
		Amount:      amount,
		Status:      fsm.StatusPending,
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, product_code, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, userID, productCode, amount, fsm.StatusPending).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (models.Order, error) {
	var order models.Order
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, product_code, amount, status, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.ProductCode, &order.Amount, &order.Status, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Order{}, ErrOrderNotFound
		}
		return models.Order{}, err
	}
	return order, nil
}

// LatestByUserInStatus returns the user's most recent order in the given
// status. Used for attaching an uploaded receipt to the order that was
// explicitly armed for upload.
func (r *OrderRepository) LatestByUserInStatus(ctx context.Context, userID int64, status string) (models.Order, error) {
	var order models.Order
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, product_code, amount, status, created_at
		FROM orders
		WHERE user_id = $1 AND status = $2
		ORDER BY id DESC
		LIMIT 1
	`, userID, status).Scan(&order.ID, &order.UserID, &order.ProductCode, &order.Amount, &order.Status, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Order{}, ErrOrderNotFound
		}
		return models.Order{}, err
	}
	return order, nil
}

// ApplyStatus performs the conditional status update. A lost race (the order
// is no longer in fromStatus) comes back as ErrInvalidTransition.
func (r *OrderRepository) ApplyStatus(ctx context.Context, orderID int64, fromStatus, toStatus string) error {
	if err := fsm.Apply(ctx, r.DB, orderID, fromStatus, toStatus); err != nil {
		if err == sql.ErrNoRows {
			return models.ErrInvalidTransition
		}
		return err
	}
	return nil
}

// ApprovePaid moves the order to paid and persists the issued token batch
// in one transaction. A failed token write rolls the transition back, so the
// order never ends up paid without its tokens; the conditional update makes
// a concurrent decision lose in the same way as ApplyStatus.
func (r *OrderRepository) ApprovePaid(ctx context.Context, orderID int64, fromStatus string, tokens []models.Token) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fsm.Apply(ctx, tx, orderID, fromStatus, fsm.StatusPaid); err != nil {
		if err == sql.ErrNoRows {
			err = models.ErrInvalidTransition
		}
		return err
	}
	if err = insertTokens(ctx, tx, tokens); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}
