package services

import (
	"context"
	"fmt"

	"kassaBack/internal/models"
)

type requestStore interface {
	Open(ctx context.Context, orderID int64) (models.InvoiceRequest, error)
	Close(ctx context.Context, orderID int64) error
	MostRecentOpen(ctx context.Context) (int64, bool, error)
}

type slotStore interface {
	Claim(ctx context.Context, orderID int64) (bool, error)
	Current(ctx context.Context) (int64, bool, error)
	Release(ctx context.Context) error
}

type orderGetter interface {
	GetByID(ctx context.Context, id int64) (models.Order, error)
}

// InvoiceService tracks buyer requests for the seller's fiscal receipt and
// the reviewer-side forwarding conversation. A single slot claim keeps at
// most one forwarding conversation in flight system-wide, so the next file
// the reviewer uploads has exactly one destination.
type InvoiceService struct {
	RequestRepo requestStore
	Slot        slotStore
	Orders      orderGetter
	Notifier    Notifier
	Logger      Logger
	ReviewerID  int64
}

// Request opens (or reopens) the receipt request for the buyer's order and
// asks the reviewer to serve it. While another order holds the forwarding
// slot the request is refused instead of silently moving the cursor.
func (s *InvoiceService) Request(ctx context.Context, userID, orderID int64) error {
	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return models.ErrOrderNotFound
	}

	ok, err := s.Slot.Claim(ctx, orderID)
	if err != nil {
		return fmt.Errorf("claim forward slot: %w", err)
	}
	if !ok {
		return models.ErrForwardSlotBusy
	}
	if _, err := s.RequestRepo.Open(ctx, orderID); err != nil {
		return fmt.Errorf("open invoice request: %w", err)
	}

	text := fmt.Sprintf("🧾 Запрос чека по заказу #%d\nПокупатель: %d", orderID, userID)
	buttons := [][]Button{
		{{Label: "📤 Отправить чек клиенту", Action: fmt.Sprintf("send_invoice:%d", orderID)}},
		{{Label: "✅ Закрыть запрос", Action: fmt.Sprintf("close_invoice:%d", orderID)}},
	}
	if err := s.Notifier.SendMessage(ctx, s.ReviewerID, text, buttons); err != nil {
		s.Logger.Errorf("invoices: notify reviewer about request for order %d: %v", orderID, err)
	}
	return nil
}

// Reopen marks the order's request as being served again, for the reviewer's
// explicit "send receipt to client" action. The slot guard applies here too:
// while another order holds the forwarding conversation, reopening would
// point the reviewer's next upload at the wrong buyer.
func (s *InvoiceService) Reopen(ctx context.Context, orderID int64) error {
	ok, err := s.Slot.Claim(ctx, orderID)
	if err != nil {
		return fmt.Errorf("claim forward slot: %w", err)
	}
	if !ok {
		return models.ErrForwardSlotBusy
	}
	_, err = s.RequestRepo.Open(ctx, orderID)
	return err
}

// CurrentOpen resolves the order currently being serviced. The slot is
// authoritative; after a restart it falls back to the most recent open row
// and re-claims the slot.
func (s *InvoiceService) CurrentOpen(ctx context.Context) (int64, bool, error) {
	orderID, ok, err := s.Slot.Current(ctx)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return orderID, true, nil
	}
	orderID, ok, err = s.RequestRepo.MostRecentOpen(ctx)
	if err != nil || !ok {
		return 0, false, err
	}
	if _, err := s.Slot.Claim(ctx, orderID); err != nil {
		s.Logger.Errorf("invoices: reclaim forward slot for order %d: %v", orderID, err)
	}
	return orderID, true, nil
}

// Forward delivers the reviewer's uploaded receipt file to the buyer of the
// order holding the slot, then closes the request. The request stays open if
// delivery fails so the reviewer can retry.
func (s *InvoiceService) Forward(ctx context.Context, file models.FileRef) (int64, error) {
	orderID, ok, err := s.CurrentOpen(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, models.ErrRequestNotFound
	}
	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if err := s.Notifier.SendFile(ctx, order.UserID, file, "🧾 Чек от продавца", nil); err != nil {
		return 0, fmt.Errorf("forward receipt for order %d: %w", orderID, err)
	}
	if err := s.close(ctx, orderID); err != nil {
		return 0, err
	}
	return orderID, nil
}

// Close finishes the forwarding conversation without sending anything.
func (s *InvoiceService) Close(ctx context.Context, orderID int64) error {
	return s.close(ctx, orderID)
}

func (s *InvoiceService) close(ctx context.Context, orderID int64) error {
	if err := s.RequestRepo.Close(ctx, orderID); err != nil {
		return err
	}
	current, ok, err := s.Slot.Current(ctx)
	if err != nil {
		return err
	}
	if ok && current == orderID {
		return s.Slot.Release(ctx)
	}
	return nil
}
