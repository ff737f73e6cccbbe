package repositories

import (
	"context"
	"database/sql"
)

type ConsentRepository struct {
	DB *sql.DB
}

// Record inserts the consent row for the user. First acceptance wins: the
// insert is silently ignored if a row already exists.
func (r *ConsentRepository) Record(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO consents (user_id, accepted_at)
		VALUES ($1, now())
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func (r *ConsentRepository) HasConsented(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM consents WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListUserIDs returns every consented user, for promo broadcasts.
func (r *ConsentRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT user_id FROM consents ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
