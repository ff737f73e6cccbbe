package fsm

import (
	"context"
	"database/sql"
)

// Status constants used by the order state machine.
const (
	StatusPending       = "pending"
	StatusAwaitReceipt  = "await_receipt"
	StatusWaitingUpload = "waiting_receipt_upload"
	StatusPaid          = "paid"
	StatusRejected      = "rejected"
)

var transitions = map[string]map[string]struct{}{
	StatusPending: {
		StatusAwaitReceipt:  {},
		StatusWaitingUpload: {},
		StatusPaid:          {},
		StatusRejected:      {},
	},
	StatusAwaitReceipt: {
		StatusWaitingUpload: {},
		StatusPending:       {},
	},
	StatusWaitingUpload: {
		StatusPending:  {},
		StatusPaid:     {},
		StatusRejected: {},
	},
	// paid and rejected are terminal
	StatusPaid:     {},
	StatusRejected: {},
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(status string) bool {
	return len(transitions[status]) == 0
}

// CanTransition returns whether the order can transition from the current status to the target status.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Apply updates an order status using optimistic validation. The update is
// conditional on the current status, so a concurrent transition loses the
// race with zero rows affected instead of overwriting a terminal state.
func Apply(ctx context.Context, db Execer, orderID int64, fromStatus, toStatus string) error {
	if !CanTransition(fromStatus, toStatus) {
		return sql.ErrNoRows
	}
	res, err := db.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`, toStatus, orderID, fromStatus)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
