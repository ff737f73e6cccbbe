package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"kassaBack/internal/models"
)

// tokenBytes of entropy per token. 8 raw bytes encode to an 11-character
// base64url value with 64 bits of entropy.
const tokenBytes = 8

// TokenService mints personal access tokens for downstream target bots.
// It never persists: approval writes the minted batch in the same
// transaction as the paid status change, so a failed write leaves no
// half-issued order behind.
type TokenService struct{}

// Issue generates one token per target, in the given order. ttl <= 0
// produces non-expiring tokens. Link order matches the targets slice because
// the caller renders them as buttons.
func (s *TokenService) Issue(userID int64, targets []string, ttl time.Duration) ([]models.Token, []models.AccessLink, error) {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	tokens := make([]models.Token, 0, len(targets))
	links := make([]models.AccessLink, 0, len(targets))
	for _, target := range targets {
		value, err := newTokenValue()
		if err != nil {
			return nil, nil, fmt.Errorf("generate token: %w", err)
		}
		tokens = append(tokens, models.Token{
			Token:     value,
			Target:    target,
			UserID:    userID,
			ExpiresAt: expiresAt,
		})
		links = append(links, models.AccessLink{
			Target: target,
			Token:  value,
			URL:    fmt.Sprintf("https://t.me/%s?start=%s", target, value),
		})
	}
	return tokens, links, nil
}

func newTokenValue() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
