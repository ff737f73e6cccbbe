package repositories

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const forwardSlotKey = "invoice:forward_slot"

// ForwardSlot is the single-slot claim for the reviewer-side receipt
// forwarding conversation. Only one order can hold the slot at a time, so
// the next file the reviewer uploads has an unambiguous destination.
type ForwardSlot struct {
	rdb *redis.Client
}

// NewForwardSlot creates the slot store.
func NewForwardSlot(rdb *redis.Client) *ForwardSlot {
	return &ForwardSlot{rdb: rdb}
}

// Claim takes the slot for the order. It returns false when a different
// order already holds the slot; re-claiming for the same order succeeds.
func (s *ForwardSlot) Claim(ctx context.Context, orderID int64) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, forwardSlotKey, strconv.FormatInt(orderID, 10), 0).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	current, err := s.rdb.Get(ctx, forwardSlotKey).Result()
	if err != nil {
		if err == redis.Nil {
			// released between SetNX and Get; try once more
			return s.rdb.SetNX(ctx, forwardSlotKey, strconv.FormatInt(orderID, 10), 0).Result()
		}
		return false, err
	}
	return current == strconv.FormatInt(orderID, 10), nil
}

// Current returns the order holding the slot, if any.
func (s *ForwardSlot) Current(ctx context.Context) (int64, bool, error) {
	raw, err := s.rdb.Get(ctx, forwardSlotKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, err
	}
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return orderID, true, nil
}

// Release frees the slot.
func (s *ForwardSlot) Release(ctx context.Context) error {
	return s.rdb.Del(ctx, forwardSlotKey).Err()
}
