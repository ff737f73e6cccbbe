package scheduler

import (
	"context"
	"fmt"
	"time"

	"kassaBack/internal/fsm"
	"kassaBack/internal/models"
)

// Logger is a minimal logger interface required by the scheduler.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type orderGetter interface {
	GetByID(ctx context.Context, id int64) (models.Order, error)
}

type consentLister interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// Notifier sends plain reminder texts. Per-recipient failures are logged
// and skipped; the scheduler never retries a delivery.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Scheduler runs one-shot timers: a per-order payment reminder and the
// promotion countdown broadcasts. Timers never mutate orders; at fire time
// they re-read current state and stay silent when the order has moved on.
type Scheduler struct {
	orders   orderGetter
	consents consentLister
	notifier Notifier
	logger   Logger

	orderDelay  time.Duration
	promoEndsAt time.Time
	offsets     []time.Duration

	ctx context.Context
}

// New creates a scheduler. offsets are durations before promoEndsAt at which
// the countdown broadcasts fire.
func New(orders orderGetter, consents consentLister, notifier Notifier, logger Logger, orderDelay time.Duration, promoEndsAt time.Time, offsets []time.Duration) *Scheduler {
	return &Scheduler{
		orders:      orders,
		consents:    consents,
		notifier:    notifier,
		logger:      logger,
		orderDelay:  orderDelay,
		promoEndsAt: promoEndsAt,
		offsets:     offsets,
	}
}

// Start binds the scheduler to the process context and arms the promotion
// countdown timers. Countdown moments already in the past are never
// scheduled.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	if s.promoEndsAt.IsZero() {
		return
	}
	now := time.Now()
	for _, offset := range s.offsets {
		fireAt := s.promoEndsAt.Add(-offset)
		if !fireAt.After(now) {
			continue
		}
		remaining := offset
		s.runAfter(fireAt.Sub(now), func(ctx context.Context) {
			s.broadcastCountdown(ctx, remaining)
		})
	}
}

// ScheduleOrderReminder arms the one-shot payment reminder for a new order.
// There is no explicit cancellation: if the order is resolved by fire time
// the status re-check makes the timer a silent no-op.
func (s *Scheduler) ScheduleOrderReminder(orderID, userID int64) {
	s.runAfter(s.orderDelay, func(ctx context.Context) {
		s.remindOrder(ctx, orderID, userID)
	})
}

func (s *Scheduler) runAfter(delay time.Duration, fn func(ctx context.Context)) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			fn(ctx)
		}
	}()
}

func (s *Scheduler) remindOrder(ctx context.Context, orderID, userID int64) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		// order may be gone by fire time; nothing to remind about
		s.logger.Infof("scheduler: reminder for order %d skipped: %v", orderID, err)
		return
	}
	if order.Status != fsm.StatusAwaitReceipt && order.Status != fsm.StatusWaitingUpload {
		return
	}
	text := fmt.Sprintf("⏰ Напоминание: заказ #%d ждёт оплату и чек. После проверки пришлём персональные ссылки.", orderID)
	if err := s.notifier.SendText(ctx, userID, text); err != nil {
		s.logger.Errorf("scheduler: remind user %d about order %d: %v", userID, orderID, err)
	}
}

func (s *Scheduler) broadcastCountdown(ctx context.Context, remaining time.Duration) {
	users, err := s.consents.ListUserIDs(ctx)
	if err != nil {
		s.logger.Errorf("scheduler: list consented users: %v", err)
		return
	}
	hours := int(remaining / time.Hour)
	text := fmt.Sprintf("⏳ До конца акции осталось %d ч. Успейте купить по стартовым ценам!", hours)
	sent := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		if err := s.notifier.SendText(ctx, userID, text); err != nil {
			s.logger.Errorf("scheduler: countdown to user %d: %v", userID, err)
			continue
		}
		sent++
	}
	s.logger.Infof("scheduler: promo countdown (%dh) delivered to %d of %d users", hours, sent, len(users))
}
