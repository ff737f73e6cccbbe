package handlers

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"kassaBack/internal/fsm"
	"kassaBack/internal/models"
	"kassaBack/internal/services"
	"kassaBack/internal/telegram"
)

const (
	buyerID    int64 = 42
	reviewerID int64 = 999
)

type nopLogger struct{}

func (nopLogger) Infof(format string, args ...interface{})  {}
func (nopLogger) Errorf(format string, args ...interface{}) {}

// fakeTransport records everything the handler sends back out.
type fakeTransport struct {
	mu       sync.Mutex
	messages map[int64][]string
	buttons  map[int64][][][]services.Button
	files    map[int64][]models.FileRef
	acks     []string
	alerts   []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		messages: make(map[int64][]string),
		buttons:  make(map[int64][][][]services.Button),
		files:    make(map[int64][]models.FileRef),
	}
}

func (t *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string, buttons [][]services.Button) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages[chatID] = append(t.messages[chatID], text)
	t.buttons[chatID] = append(t.buttons[chatID], buttons)
	return nil
}

func (t *fakeTransport) SendFile(ctx context.Context, chatID int64, file models.FileRef, caption string, buttons [][]services.Button) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files[chatID] = append(t.files[chatID], file)
	return nil
}

func (t *fakeTransport) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acks = append(t.acks, text)
	if alert {
		t.alerts = append(t.alerts, text)
	}
	return nil
}

func (t *fakeTransport) lastMessageTo(chatID int64) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := t.messages[chatID]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func (t *fakeTransport) anyMessageContains(chatID int64, substr string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, msg := range t.messages[chatID] {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func (t *fakeTransport) lastAlert() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.alerts) == 0 {
		return ""
	}
	return t.alerts[len(t.alerts)-1]
}

type fakeOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*models.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{nextID: 1, orders: make(map[int64]*models.Order)}
}

func (f *fakeOrders) Create(ctx context.Context, userID int64, productCode string, amount float64) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := models.Order{ID: f.nextID, UserID: userID, ProductCode: productCode, Amount: amount, Status: fsm.StatusPending}
	f.orders[order.ID] = &order
	f.nextID++
	return order, nil
}

func (f *fakeOrders) GetByID(ctx context.Context, id int64) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return models.Order{}, models.ErrOrderNotFound
	}
	return *order, nil
}

func (f *fakeOrders) LatestByUserInStatus(ctx context.Context, userID int64, status string) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *models.Order
	for _, order := range f.orders {
		if order.UserID == userID && order.Status == status {
			if found == nil || order.ID > found.ID {
				found = order
			}
		}
	}
	if found == nil {
		return models.Order{}, models.ErrOrderNotFound
	}
	return *found, nil
}

func (f *fakeOrders) ApplyStatus(ctx context.Context, orderID int64, fromStatus, toStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok || order.Status != fromStatus || !fsm.CanTransition(fromStatus, toStatus) {
		return models.ErrInvalidTransition
	}
	order.Status = toStatus
	return nil
}

func (f *fakeOrders) ApprovePaid(ctx context.Context, orderID int64, fromStatus string, tokens []models.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok || order.Status != fromStatus || !fsm.CanTransition(fromStatus, fsm.StatusPaid) {
		return models.ErrInvalidTransition
	}
	order.Status = fsm.StatusPaid
	return nil
}

func (f *fakeOrders) status(id int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id].Status
}

type fakeReceipts struct {
	mu     sync.Mutex
	nextID int64
}

func (f *fakeReceipts) Create(ctx context.Context, orderID int64, file models.FileRef) (models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return models.Receipt{ID: f.nextID, OrderID: orderID, FileID: file.ID, FileKind: file.Kind}, nil
}

type fakeProducts struct {
	products map[string]models.Product
}

func (f *fakeProducts) GetByCode(ctx context.Context, code string) (models.Product, error) {
	p, ok := f.products[code]
	if !ok {
		return models.Product{}, models.ErrProductNotFound
	}
	return p, nil
}

type fakeConsents struct {
	mu    sync.Mutex
	users map[int64]bool
}

func newFakeConsents() *fakeConsents { return &fakeConsents{users: make(map[int64]bool)} }

func (f *fakeConsents) Record(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[userID] = true
	return nil
}

func (f *fakeConsents) HasConsented(ctx context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID], nil
}

func (f *fakeConsents) ListUserIDs(ctx context.Context) ([]int64, error) { return nil, nil }

type fakeSlot struct {
	mu      sync.Mutex
	holder  int64
	claimed bool
}

func (s *fakeSlot) Claim(ctx context.Context, orderID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed && s.holder != orderID {
		return false, nil
	}
	s.claimed = true
	s.holder = orderID
	return true, nil
}

func (s *fakeSlot) Current(ctx context.Context) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holder, s.claimed, nil
}

func (s *fakeSlot) Release(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimed = false
	s.holder = 0
	return nil
}

type fakeRequests struct {
	mu     sync.Mutex
	nextID int64
	open   map[int64]bool
}

func newFakeRequests() *fakeRequests { return &fakeRequests{open: make(map[int64]bool)} }

func (f *fakeRequests) Open(ctx context.Context, orderID int64) (models.InvoiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.open[orderID] = true
	return models.InvoiceRequest{ID: f.nextID, OrderID: orderID}, nil
}

func (f *fakeRequests) Close(ctx context.Context, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.open[orderID]; !ok {
		return models.ErrRequestNotFound
	}
	f.open[orderID] = false
	return nil
}

func (f *fakeRequests) MostRecentOpen(ctx context.Context) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for orderID, open := range f.open {
		if open {
			return orderID, true, nil
		}
	}
	return 0, false, nil
}

func newTestHandler() (*BotHandler, *fakeTransport, *fakeOrders) {
	transport := newFakeTransport()
	orders := newFakeOrders()
	products := &fakeProducts{products: map[string]models.Product{
		"unpack": {Code: "unpack", Title: "Распаковка", Price: 4900, Targets: []string{"unpack_bot"}},
		"b123":   {Code: "b123", Title: "Пакет", Price: 9900, Targets: []string{"unpack_bot", "copy_bot", "photo_bot"}},
	}}
	consents := newFakeConsents()

	orderService := &services.OrderService{
		OrderRepo:   orders,
		ReceiptRepo: &fakeReceipts{},
		Products:    products,
		Pricing:     &services.PricingService{Products: products},
		Consents:    consents,
		Tokens:      &services.TokenService{},
		Notifier:    transport,
		Logger:      nopLogger{},
		ReviewerID:  reviewerID,
		TokenTTL:    time.Hour,
	}
	invoiceService := &services.InvoiceService{
		RequestRepo: newFakeRequests(),
		Slot:        &fakeSlot{},
		Orders:      orders,
		Notifier:    transport,
		Logger:      nopLogger{},
		ReviewerID:  reviewerID,
	}
	handler := &BotHandler{
		Orders:     orderService,
		Consents:   &services.ConsentService{ConsentRepo: consents},
		Invoices:   invoiceService,
		Client:     transport,
		Logger:     nopLogger{},
		ReviewerID: reviewerID,
		Payment:    PaymentDetails{Phone: "+7 900 000-00-00", Recipient: "Иван И.", Bank: "Т-Банк"},
		Legal:      LegalLinks{PolicyURL: "https://example.com/policy"},
	}
	return handler, transport, orders
}

func callback(uid int64, data string) telegram.Update {
	return telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:   "cb-1",
		From: telegram.User{ID: uid},
		Data: data,
	}}
}

func TestSplitAction(t *testing.T) {
	tests := []struct {
		data   string
		action string
		arg    string
	}{
		{"consent_ok", "consent_ok", ""},
		{"buy:unpack", "buy", "unpack"},
		{"confirm:17", "confirm", "17"},
		{"send_invoice:3", "send_invoice", "3"},
		{"", "", ""},
	}
	for _, tt := range tests {
		action, arg := splitAction(tt.data)
		if action != tt.action || arg != tt.arg {
			t.Errorf("splitAction(%q) = (%q, %q); want (%q, %q)", tt.data, action, arg, tt.action, tt.arg)
		}
	}
}

func TestExtractFilePrefersLargestPhoto(t *testing.T) {
	msg := &telegram.Message{Photo: []telegram.PhotoSize{{FileID: "small"}, {FileID: "big"}}}
	file, ok := extractFile(msg)
	if !ok || file.ID != "big" || file.Kind != models.FileKindPhoto {
		t.Errorf("extractFile = (%+v, %v); want big photo", file, ok)
	}

	msg = &telegram.Message{Document: &telegram.Document{FileID: "doc-1"}}
	file, ok = extractFile(msg)
	if !ok || file.ID != "doc-1" || file.Kind != models.FileKindDocument {
		t.Errorf("extractFile = (%+v, %v); want document", file, ok)
	}

	if _, ok := extractFile(&telegram.Message{Text: "hello"}); ok {
		t.Error("extractFile found a file in a text message")
	}
}

func TestStartShowsConsentGate(t *testing.T) {
	handler, transport, _ := newTestHandler()
	handler.HandleUpdate(context.Background(), telegram.Update{Message: &telegram.Message{
		From: &telegram.User{ID: buyerID},
		Text: "/start",
	}})

	if !transport.anyMessageContains(buyerID, "example.com/policy") {
		t.Errorf("consent gate missing policy link; got %q", transport.lastMessageTo(buyerID))
	}
}

func TestBuyWithoutConsent(t *testing.T) {
	handler, transport, orders := newTestHandler()
	handler.HandleUpdate(context.Background(), callback(buyerID, "buy:unpack"))

	if transport.lastMessageTo(buyerID) != consentFirst {
		t.Errorf("want consent prompt; got %q", transport.lastMessageTo(buyerID))
	}
	if len(orders.orders) != 0 {
		t.Error("order created without consent")
	}
}

func TestBuyFlowToApproval(t *testing.T) {
	ctx := context.Background()
	handler, transport, orders := newTestHandler()

	handler.HandleUpdate(ctx, callback(buyerID, "consent_ok"))
	handler.HandleUpdate(ctx, callback(buyerID, "buy:unpack"))

	if len(orders.orders) != 1 {
		t.Fatalf("want 1 order; got %d", len(orders.orders))
	}
	if got := orders.status(1); got != fsm.StatusAwaitReceipt {
		t.Fatalf("want status %q after buy; got %q", fsm.StatusAwaitReceipt, got)
	}
	if !transport.anyMessageContains(buyerID, "ORDER-1") {
		t.Error("payment instructions missing the order comment")
	}

	handler.HandleUpdate(ctx, callback(buyerID, "send_receipt:1"))
	if got := orders.status(1); got != fsm.StatusWaitingUpload {
		t.Fatalf("want status %q after arming; got %q", fsm.StatusWaitingUpload, got)
	}

	handler.HandleUpdate(ctx, telegram.Update{Message: &telegram.Message{
		From:  &telegram.User{ID: buyerID},
		Photo: []telegram.PhotoSize{{FileID: "receipt-1"}},
	}})
	if got := orders.status(1); got != fsm.StatusPending {
		t.Fatalf("want status %q after upload; got %q", fsm.StatusPending, got)
	}
	if len(transport.files[reviewerID]) != 1 {
		t.Fatal("receipt not forwarded to reviewer")
	}

	handler.HandleUpdate(ctx, callback(reviewerID, "confirm:1"))
	if got := orders.status(1); got != fsm.StatusPaid {
		t.Fatalf("want status %q after confirm; got %q", fsm.StatusPaid, got)
	}
	if !transport.anyMessageContains(buyerID, "Доступ активирован") {
		t.Error("buyer did not receive the activation message")
	}
}

func TestReceiptWithoutArmedOrder(t *testing.T) {
	ctx := context.Background()
	handler, transport, _ := newTestHandler()

	handler.HandleUpdate(ctx, callback(buyerID, "consent_ok"))
	handler.HandleUpdate(ctx, callback(buyerID, "buy:unpack"))

	// Upload without pressing the send-receipt button first.
	handler.HandleUpdate(ctx, telegram.Update{Message: &telegram.Message{
		From:  &telegram.User{ID: buyerID},
		Photo: []telegram.PhotoSize{{FileID: "receipt-1"}},
	}})
	if transport.lastMessageTo(buyerID) != receiptHint {
		t.Errorf("want upload hint; got %q", transport.lastMessageTo(buyerID))
	}
}

func TestDecisionByNonReviewer(t *testing.T) {
	ctx := context.Background()
	handler, transport, orders := newTestHandler()

	handler.HandleUpdate(ctx, callback(buyerID, "consent_ok"))
	handler.HandleUpdate(ctx, callback(buyerID, "buy:unpack"))

	handler.HandleUpdate(ctx, callback(buyerID, "confirm:1"))
	if got := transport.lastAlert(); got != noRightsText {
		t.Errorf("want rights alert; got %q", got)
	}
	if got := orders.status(1); got != fsm.StatusAwaitReceipt {
		t.Errorf("status changed by non-reviewer decision: %q", got)
	}
}

func TestDoubleDecisionLosesCleanly(t *testing.T) {
	ctx := context.Background()
	handler, transport, orders := newTestHandler()

	handler.HandleUpdate(ctx, callback(buyerID, "consent_ok"))
	handler.HandleUpdate(ctx, callback(buyerID, "buy:unpack"))
	handler.HandleUpdate(ctx, callback(buyerID, "send_receipt:1"))
	handler.HandleUpdate(ctx, telegram.Update{Message: &telegram.Message{
		From:  &telegram.User{ID: buyerID},
		Photo: []telegram.PhotoSize{{FileID: "receipt-1"}},
	}})

	handler.HandleUpdate(ctx, callback(reviewerID, "reject:1"))
	if got := orders.status(1); got != fsm.StatusRejected {
		t.Fatalf("want status %q; got %q", fsm.StatusRejected, got)
	}

	// The stale confirm button on the same receipt message.
	handler.HandleUpdate(ctx, callback(reviewerID, "confirm:1"))
	if got := transport.lastAlert(); got != decidedText {
		t.Errorf("want already-decided alert; got %q", got)
	}
	if got := orders.status(1); got != fsm.StatusRejected {
		t.Errorf("stale confirm changed status to %q", got)
	}
}

func TestInvoiceRequestAndForward(t *testing.T) {
	ctx := context.Background()
	handler, transport, _ := newTestHandler()

	handler.HandleUpdate(ctx, callback(buyerID, "consent_ok"))
	handler.HandleUpdate(ctx, callback(buyerID, "buy:unpack"))
	handler.HandleUpdate(ctx, callback(buyerID, "send_receipt:1"))
	handler.HandleUpdate(ctx, telegram.Update{Message: &telegram.Message{
		From:  &telegram.User{ID: buyerID},
		Photo: []telegram.PhotoSize{{FileID: "receipt-1"}},
	}})
	handler.HandleUpdate(ctx, callback(reviewerID, "confirm:1"))

	handler.HandleUpdate(ctx, callback(buyerID, "request_invoice:1"))
	if !transport.anyMessageContains(reviewerID, "Запрос чека по заказу #1") {
		t.Fatal("reviewer not asked to serve the invoice request")
	}

	// The reviewer's next file upload goes to the buyer.
	handler.HandleUpdate(ctx, telegram.Update{Message: &telegram.Message{
		From:     &telegram.User{ID: reviewerID},
		Document: &telegram.Document{FileID: "fiscal-1"},
	}})
	files := transport.files[buyerID]
	if len(files) != 1 || files[0].ID != "fiscal-1" {
		t.Fatalf("invoice not forwarded to buyer: %v", files)
	}
	if !transport.anyMessageContains(reviewerID, "Запрос закрыт") {
		t.Error("reviewer not told the request is closed")
	}
}

func TestSendInvoiceWhileSlotBusy(t *testing.T) {
	ctx := context.Background()
	handler, transport, orders := newTestHandler()

	handler.HandleUpdate(ctx, callback(buyerID, "consent_ok"))
	for _, ord := range []struct {
		code string
		id   string
	}{{"unpack", "1"}, {"b123", "2"}} {
		handler.HandleUpdate(ctx, callback(buyerID, "buy:"+ord.code))
		handler.HandleUpdate(ctx, callback(buyerID, "send_receipt:"+ord.id))
		handler.HandleUpdate(ctx, telegram.Update{Message: &telegram.Message{
			From:  &telegram.User{ID: buyerID},
			Photo: []telegram.PhotoSize{{FileID: "receipt-" + ord.id}},
		}})
		handler.HandleUpdate(ctx, callback(reviewerID, "confirm:"+ord.id))
	}
	if got := orders.status(1); got != fsm.StatusPaid {
		t.Fatalf("order 1 not paid: %q", got)
	}

	handler.HandleUpdate(ctx, callback(buyerID, "request_invoice:1"))

	// The stale send button for the other order must not steal the slot.
	handler.HandleUpdate(ctx, callback(reviewerID, "send_invoice:2"))
	if got := transport.lastAlert(); got != slotBusyText {
		t.Fatalf("want busy alert; got %q", got)
	}

	// The next reviewer upload still goes to the first order's buyer.
	handler.HandleUpdate(ctx, telegram.Update{Message: &telegram.Message{
		From:     &telegram.User{ID: reviewerID},
		Document: &telegram.Document{FileID: "fiscal-1"},
	}})
	files := transport.files[buyerID]
	if len(files) != 1 || files[0].ID != "fiscal-1" {
		t.Fatalf("invoice not delivered to the slot holder's buyer: %v", files)
	}
}

func TestInvoiceActionsGatedToReviewer(t *testing.T) {
	ctx := context.Background()
	handler, transport, _ := newTestHandler()

	handler.HandleUpdate(ctx, callback(buyerID, "send_invoice:1"))
	if got := transport.lastAlert(); got != noRightsText {
		t.Errorf("send_invoice by buyer: want rights alert; got %q", got)
	}
	handler.HandleUpdate(ctx, callback(buyerID, "close_invoice:1"))
	if got := transport.lastAlert(); got != noRightsText {
		t.Errorf("close_invoice by buyer: want rights alert; got %q", got)
	}
}
