package repositories

import (
	"context"
	"database/sql"

	"kassaBack/internal/models"
)

type InvoiceRequestRepository struct {
	DB *sql.DB
}

// Open upserts the request row for the order, reopening it if one already
// exists. The conflict target is the UNIQUE constraint on order_id.
func (r *InvoiceRequestRepository) Open(ctx context.Context, orderID int64) (models.InvoiceRequest, error) {
	req := models.InvoiceRequest{OrderID: orderID}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO invoice_requests (order_id, closed)
		VALUES ($1, FALSE)
		ON CONFLICT (order_id) DO UPDATE SET closed = FALSE, requested_at = now()
		RETURNING id, requested_at, closed
	`, orderID).Scan(&req.ID, &req.RequestedAt, &req.Closed)
	if err != nil {
		return models.InvoiceRequest{}, err
	}
	return req, nil
}

// Close marks the order's request as served.
func (r *InvoiceRequestRepository) Close(ctx context.Context, orderID int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE invoice_requests SET closed = TRUE WHERE order_id = $1`, orderID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrRequestNotFound
	}
	return nil
}

// MostRecentOpen returns the open request with the highest id, if any.
// The redis forward slot is the authoritative cursor; this is the fallback
// used when the slot is empty after a restart.
func (r *InvoiceRequestRepository) MostRecentOpen(ctx context.Context) (int64, bool, error) {
	var orderID int64
	err := r.DB.QueryRowContext(ctx, `
		SELECT order_id FROM invoice_requests WHERE closed = FALSE ORDER BY id DESC LIMIT 1
	`).Scan(&orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return orderID, true, nil
}
