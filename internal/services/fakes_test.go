package services

import (
	"context"
	"sync"

	"kassaBack/internal/fsm"
	"kassaBack/internal/models"
)

type nopLogger struct{}

func (nopLogger) Infof(format string, args ...interface{})  {}
func (nopLogger) Errorf(format string, args ...interface{}) {}

// fakeProducts is an in-memory product catalog.
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

// fakeOrders emulates the orders table, including the conditional status
// update semantics of the real repository and the transactional approve:
// tokens land in the attached sink only when the transition commits.
type fakeOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*models.Order
	tokens *fakeTokens
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{nextID: 1, orders: make(map[int64]*models.Order), tokens: newFakeTokens()}
}

func (f *fakeOrders) Create(ctx context.Context, userID int64, productCode string, amount float64) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := models.Order{
		ID:          f.nextID,
		UserID:      userID,
		ProductCode: productCode,
		Amount:      amount,
		Status:      fsm.StatusPending,
	}
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
	// store failure rolls the whole approval back
	if err := f.tokens.insert(tokens); err != nil {
		return err
	}
	order.Status = fsm.StatusPaid
	return nil
}

type fakeReceipts struct {
	mu       sync.Mutex
	nextID   int64
	receipts []models.Receipt
}

func (f *fakeReceipts) Create(ctx context.Context, orderID int64, file models.FileRef) (models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	receipt := models.Receipt{ID: f.nextID, OrderID: orderID, FileID: file.ID, FileKind: file.Kind}
	f.receipts = append(f.receipts, receipt)
	return receipt, nil
}

// fakeTokens records issued batches; inserts ignore colliding token values.
type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]models.Token
	fail   error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: make(map[string]models.Token)}
}

func (f *fakeTokens) insert(tokens []models.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	for _, t := range tokens {
		if _, exists := f.tokens[t.Token]; exists {
			continue
		}
		f.tokens[t.Token] = t
	}
	return nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type fakeConsents struct {
	mu    sync.Mutex
	users map[int64]bool
}

func newFakeConsents() *fakeConsents {
	return &fakeConsents{users: make(map[int64]bool)}
}

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

func (f *fakeConsents) ListUserIDs(ctx context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	return ids, nil
}

type sentMessage struct {
	chatID  int64
	text    string
	buttons [][]Button
}

type sentFile struct {
	chatID  int64
	file    models.FileRef
	caption string
	buttons [][]Button
}

// recordingNotifier captures outbound notifications; failNext makes the
// next delivery fail once.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []sentMessage
	files    []sentFile
	failNext error
}

func (n *recordingNotifier) SendMessage(ctx context.Context, chatID int64, text string, buttons [][]Button) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNext != nil {
		err := n.failNext
		n.failNext = nil
		return err
	}
	n.messages = append(n.messages, sentMessage{chatID: chatID, text: text, buttons: buttons})
	return nil
}

func (n *recordingNotifier) SendFile(ctx context.Context, chatID int64, file models.FileRef, caption string, buttons [][]Button) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNext != nil {
		err := n.failNext
		n.failNext = nil
		return err
	}
	n.files = append(n.files, sentFile{chatID: chatID, file: file, caption: caption, buttons: buttons})
	return nil
}

func (n *recordingNotifier) lastMessageTo(chatID int64) (sentMessage, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.messages) - 1; i >= 0; i-- {
		if n.messages[i].chatID == chatID {
			return n.messages[i], true
		}
	}
	return sentMessage{}, false
}

type recordingScheduler struct {
	mu     sync.Mutex
	orders []int64
}

func (s *recordingScheduler) ScheduleOrderReminder(orderID, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, orderID)
}

// fakeSlot is an in-memory single-slot claim.
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
	mu       sync.Mutex
	nextID   int64
	requests map[int64]*models.InvoiceRequest
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{requests: make(map[int64]*models.InvoiceRequest)}
}

func (f *fakeRequests) Open(ctx context.Context, orderID int64) (models.InvoiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.requests[orderID]; ok {
		req.Closed = false
		return *req, nil
	}
	f.nextID++
	req := &models.InvoiceRequest{ID: f.nextID, OrderID: orderID}
	f.requests[orderID] = req
	return *req, nil
}

func (f *fakeRequests) Close(ctx context.Context, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[orderID]
	if !ok {
		return models.ErrRequestNotFound
	}
	req.Closed = true
	return nil
}

func (f *fakeRequests) MostRecentOpen(ctx context.Context) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *models.InvoiceRequest
	for _, req := range f.requests {
		if !req.Closed && (found == nil || req.ID > found.ID) {
			found = req
		}
	}
	if found == nil {
		return 0, false, nil
	}
	return found.OrderID, true, nil
}
