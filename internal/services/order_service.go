package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kassaBack/internal/fsm"
	"kassaBack/internal/models"
)

type ordersStore interface {
	Create(ctx context.Context, userID int64, productCode string, amount float64) (models.Order, error)
	GetByID(ctx context.Context, id int64) (models.Order, error)
	LatestByUserInStatus(ctx context.Context, userID int64, status string) (models.Order, error)
	ApplyStatus(ctx context.Context, orderID int64, fromStatus, toStatus string) error
	ApprovePaid(ctx context.Context, orderID int64, fromStatus string, tokens []models.Token) error
}

type receiptStore interface {
	Create(ctx context.Context, orderID int64, file models.FileRef) (models.Receipt, error)
}

type priceResolver interface {
	Resolve(ctx context.Context, code string) (float64, error)
}

type consentChecker interface {
	HasConsented(ctx context.Context, userID int64) (bool, error)
}

type tokenIssuer interface {
	Issue(userID int64, targets []string, ttl time.Duration) ([]models.Token, []models.AccessLink, error)
}

type reminderScheduler interface {
	ScheduleOrderReminder(orderID, userID int64)
}

// OrderService owns order creation and every status transition. Transitions
// are authoritative; notifications to either party are best-effort and are
// only logged when they fail.
type OrderService struct {
	OrderRepo   ordersStore
	ReceiptRepo receiptStore
	Products    productGetter
	Pricing     priceResolver
	Consents    consentChecker
	Tokens      tokenIssuer
	Notifier    Notifier
	Reminders   reminderScheduler
	Logger      Logger

	ReviewerID int64
	TokenTTL   time.Duration
}

// Create opens a new order for the product, freezing the amount at the
// resolved price. The buyer must have recorded consent first. A reminder is
// scheduled at creation; it re-checks the order status at fire time.
func (s *OrderService) Create(ctx context.Context, userID int64, code string) (models.Order, models.Product, error) {
	ok, err := s.Consents.HasConsented(ctx, userID)
	if err != nil {
		return models.Order{}, models.Product{}, fmt.Errorf("check consent: %w", err)
	}
	if !ok {
		return models.Order{}, models.Product{}, models.ErrConsentRequired
	}

	product, err := s.Products.GetByCode(ctx, code)
	if err != nil {
		return models.Order{}, models.Product{}, err
	}
	price, err := s.Pricing.Resolve(ctx, code)
	if err != nil {
		return models.Order{}, models.Product{}, err
	}

	order, err := s.OrderRepo.Create(ctx, userID, code, price)
	if err != nil {
		return models.Order{}, models.Product{}, fmt.Errorf("create order: %w", err)
	}
	if s.Reminders != nil {
		s.Reminders.ScheduleOrderReminder(order.ID, order.UserID)
	}
	return order, product, nil
}

// MarkAwaitingReceipt moves a freshly created order to await_receipt once
// the payment instructions were presented to the buyer.
func (s *OrderService) MarkAwaitingReceipt(ctx context.Context, orderID int64) error {
	return s.OrderRepo.ApplyStatus(ctx, orderID, fsm.StatusPending, fsm.StatusAwaitReceipt)
}

// ArmReceiptUpload handles the explicit "send receipt" action. Only the
// order named in the action moves to waiting_receipt_upload; a later file
// upload attaches to it and to nothing else. Re-arming an order whose
// receipt is already pending review is the documented resubmission edge.
func (s *OrderService) ArmReceiptUpload(ctx context.Context, userID, orderID int64) (models.Order, error) {
	order, err := s.OrderRepo.GetByID(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if order.UserID != userID {
		return models.Order{}, models.ErrOrderNotFound
	}
	if order.Status == fsm.StatusWaitingUpload {
		return order, nil
	}
	if err := s.OrderRepo.ApplyStatus(ctx, orderID, order.Status, fsm.StatusWaitingUpload); err != nil {
		return models.Order{}, err
	}
	order.Status = fsm.StatusWaitingUpload

	s.notify(ctx, s.ReviewerID, fmt.Sprintf("⏳ Покупатель %d загружает чек по заказу #%d.", userID, orderID), nil)
	return order, nil
}

// SubmitReceipt attaches an uploaded file to the buyer's armed order, moves
// the order back under review and presents it to the reviewer with explicit
// approve/reject controls.
func (s *OrderService) SubmitReceipt(ctx context.Context, userID int64, file models.FileRef) (models.Order, models.Receipt, error) {
	order, err := s.OrderRepo.LatestByUserInStatus(ctx, userID, fsm.StatusWaitingUpload)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return models.Order{}, models.Receipt{}, models.ErrNoArmedOrder
		}
		return models.Order{}, models.Receipt{}, err
	}

	receipt, err := s.ReceiptRepo.Create(ctx, order.ID, file)
	if err != nil {
		return models.Order{}, models.Receipt{}, fmt.Errorf("store receipt: %w", err)
	}
	if err := s.OrderRepo.ApplyStatus(ctx, order.ID, fsm.StatusWaitingUpload, fsm.StatusPending); err != nil {
		return models.Order{}, models.Receipt{}, err
	}
	order.Status = fsm.StatusPending

	caption := fmt.Sprintf("💳 Чек по заказу #%d\nПокупатель: %d", order.ID, order.UserID)
	buttons := [][]Button{{
		{Label: "✅ Подтвердить", Action: fmt.Sprintf("confirm:%d", order.ID)},
		{Label: "❌ Отклонить", Action: fmt.Sprintf("reject:%d", order.ID)},
	}}
	if err := s.Notifier.SendFile(ctx, s.ReviewerID, file, caption, buttons); err != nil {
		s.Logger.Errorf("orders: notify reviewer about receipt for order %d: %v", order.ID, err)
	}
	return order, receipt, nil
}

// Approve confirms payment. Gated to the designated reviewer; the transition
// is a conditional update, so a concurrent decision loses cleanly. Tokens
// are minted first and persisted in the same transaction as the paid
// transition: a store failure rolls the status back and the confirm button
// stays live for a retry.
func (s *OrderService) Approve(ctx context.Context, callerID, orderID int64) ([]models.AccessLink, error) {
	if callerID != s.ReviewerID {
		return nil, models.ErrForbidden
	}
	order, err := s.OrderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != fsm.StatusPending && order.Status != fsm.StatusWaitingUpload {
		return nil, models.ErrInvalidTransition
	}

	product, err := s.Products.GetByCode(ctx, order.ProductCode)
	if err != nil {
		return nil, err
	}
	tokens, links, err := s.Tokens.Issue(order.UserID, product.Targets, s.TokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.OrderRepo.ApprovePaid(ctx, orderID, order.Status, tokens); err != nil {
		return nil, err
	}

	text := "🎉 Доступ активирован!\n\n⚠️ Ссылки индивидуальные. Они действуют ограниченное время и перестают работать после активации."
	buttons := make([][]Button, 0, len(links)+1)
	for _, link := range links {
		buttons = append(buttons, []Button{{Label: fmt.Sprintf("Открыть @%s", link.Target), URL: link.URL}})
	}
	buttons = append(buttons, []Button{{Label: "🧾 Запросить чек от продавца", Action: fmt.Sprintf("request_invoice:%d", order.ID)}})
	s.notify(ctx, order.UserID, text, buttons)

	return links, nil
}

// Reject declines payment evidence. No tokens are issued.
func (s *OrderService) Reject(ctx context.Context, callerID, orderID int64) error {
	if callerID != s.ReviewerID {
		return models.ErrForbidden
	}
	order, err := s.OrderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != fsm.StatusPending && order.Status != fsm.StatusWaitingUpload {
		return models.ErrInvalidTransition
	}
	if err := s.OrderRepo.ApplyStatus(ctx, orderID, order.Status, fsm.StatusRejected); err != nil {
		return err
	}

	s.notify(ctx, order.UserID, "Оплата не подтверждена. Если это ошибка — напишите нам.", nil)
	return nil
}

// Get returns the order, for callers presenting its details.
func (s *OrderService) Get(ctx context.Context, orderID int64) (models.Order, error) {
	return s.OrderRepo.GetByID(ctx, orderID)
}

func (s *OrderService) notify(ctx context.Context, chatID int64, text string, buttons [][]Button) {
	if err := s.Notifier.SendMessage(ctx, chatID, text, buttons); err != nil {
		s.Logger.Errorf("orders: notify %d: %v", chatID, err)
	}
}
