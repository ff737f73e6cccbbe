package repositories

import (
	"context"
	"database/sql"

	"kassaBack/internal/models"
)

type ReceiptRepository struct {
	DB *sql.DB
}

// Create appends a receipt submission. The table is append-only; an order
// keeps every submission but reviewers only see the most recent one.
func (r *ReceiptRepository) Create(ctx context.Context, orderID int64, file models.FileRef) (models.Receipt, error) {
	receipt := models.Receipt{
		OrderID:  orderID,
		FileID:   file.ID,
		FileKind: file.Kind,
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO receipts (order_id, file_id, file_kind)
		VALUES ($1, $2, $3)
		RETURNING id, uploaded_at
	`, orderID, file.ID, file.Kind).Scan(&receipt.ID, &receipt.UploadedAt)
	if err != nil {
		return models.Receipt{}, err
	}
	return receipt, nil
}

// LatestByOrder returns the most recent submission for the order.
func (r *ReceiptRepository) LatestByOrder(ctx context.Context, orderID int64) (models.Receipt, error) {
	var receipt models.Receipt
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, order_id, file_id, file_kind, uploaded_at
		FROM receipts
		WHERE order_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, orderID).Scan(&receipt.ID, &receipt.OrderID, &receipt.FileID, &receipt.FileKind, &receipt.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Receipt{}, models.ErrOrderNotFound
		}
		return models.Receipt{}, err
	}
	return receipt, nil
}
