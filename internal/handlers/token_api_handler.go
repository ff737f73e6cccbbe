package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"kassaBack/internal/models"
	"kassaBack/internal/services"
)

// TokenAPIHandler serves the downstream target bots: redeeming access
// tokens and checking granted access.
type TokenAPIHandler struct {
	Service *services.RedemptionService
}

type redeemRequest struct {
	Token  string `json:"token"`
	Target string `json:"target"`
}

type redeemResponse struct {
	UserID    int64   `json:"user_id"`
	Target    string  `json:"target"`
	ExpiresAt *string `json:"expires_at,omitempty"`
}

// RedeemToken consumes a token exactly once. A redeemed, expired or unknown
// token answers 404 so the caller cannot distinguish the three.
func (h *TokenAPIHandler) RedeemToken(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" || req.Target == "" {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	token, err := h.Service.Redeem(r.Context(), req.Token, req.Target)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			http.Error(w, "Token not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to redeem", http.StatusInternalServerError)
		return
	}
	resp := redeemResponse{UserID: token.UserID, Target: token.Target}
	if token.ExpiresAt != nil {
		s := token.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.ExpiresAt = &s
	}
	json.NewEncoder(w).Encode(resp)
}

// CheckAccess reports whether a user already redeemed access to a target.
func (h *TokenAPIHandler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user_id", http.StatusBadRequest)
		return
	}
	target := r.URL.Query().Get("target")
	if target == "" {
		http.Error(w, "Invalid target", http.StatusBadRequest)
		return
	}
	allowed, err := h.Service.Allowed(r.Context(), userID, target)
	if err != nil {
		http.Error(w, "Failed to check", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"allowed": allowed})
}
