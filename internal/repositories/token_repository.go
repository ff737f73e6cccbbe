package repositories

import (
	"context"
	"database/sql"

	"kassaBack/internal/models"
)

type TokenRepository struct {
	DB *sql.DB
}

// insertTokens writes one issuance batch through the caller's transaction,
// so the tokens commit or roll back together with the order transition.
// Each insert ignores a colliding token value, keeping retries idempotent.
func insertTokens(ctx context.Context, tx *sql.Tx, tokens []models.Token) error {
	for _, t := range tokens {
		var expires sql.NullTime
		if t.ExpiresAt != nil {
			expires = sql.NullTime{Time: *t.ExpiresAt, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tokens (token, target, user_id, expires_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (token) DO NOTHING
		`, t.Token, t.Target, t.UserID, expires); err != nil {
			return err
		}
	}
	return nil
}

// Redeem consumes a token exactly once: the update is conditional on the
// token being unredeemed and unexpired, and the grant row is written in the
// same transaction. A dead, expired or unknown token returns ErrTokenNotFound.
func (r *TokenRepository) Redeem(ctx context.Context, token, target string) (models.Token, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Token{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	redeemed := models.Token{Token: token, Target: target}
	var expires sql.NullTime
	err = tx.QueryRowContext(ctx, `
		UPDATE tokens
		SET redeemed_at = now()
		WHERE token = $1
		  AND target = $2
		  AND redeemed_at IS NULL
		  AND (expires_at IS NULL OR expires_at > now())
		RETURNING user_id, expires_at
	`, token, target).Scan(&redeemed.UserID, &expires)
	if err != nil {
		if err == sql.ErrNoRows {
			err = models.ErrTokenNotFound
		}
		return models.Token{}, err
	}
	if expires.Valid {
		redeemed.ExpiresAt = &expires.Time
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO allowed_users (user_id, target)
		VALUES ($1, $2)
		ON CONFLICT (user_id, target) DO NOTHING
	`, redeemed.UserID, target); err != nil {
		return models.Token{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.Token{}, err
	}
	return redeemed, nil
}

// IsAllowed reports whether the user has redeemed access to the target.
func (r *TokenRepository) IsAllowed(ctx context.Context, userID int64, target string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM allowed_users WHERE user_id = $1 AND target = $2)
	`, userID, target).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
