package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"

	domain "github.com/lintv8/Mybot/internal/entity"
)

// In-memory ports for tests. The file-backed implementations live in
// adapter/repo and carry their own tests.

type memProducts struct {
	mu sync.Mutex
	m  map[string]domain.Product
}

func newMemProducts() *memProducts {
	return &memProducts{m: map[string]domain.Product{}}
}

func (r *memProducts) Load(context.Context) (map[string]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.Product, len(r.m))
	for id, p := range r.m {
		out[id] = p
	}
	return out, nil
}

func (r *memProducts) Replace(_ context.Context, products map[string]domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m = products
	return nil
}

type memOrders struct {
	mu   sync.Mutex
	list []domain.Order
}

func (r *memOrders) Load(context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Order(nil), r.list...), nil
}

func (r *memOrders) Append(_ context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, o)
	return nil
}

func (r *memOrders) UpdateStatus(_ context.Context, id string, status domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.list {
		if r.list[i].ID == id {
			r.list[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

type memSessions struct {
	mu sync.Mutex
	m  map[string]*domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{m: map[string]*domain.Session{}}
}

func (s *memSessions) Get(userID string) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[userID]
	return sess, ok
}

func (s *memSessions) Put(userID string, sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = sess
}

func (s *memSessions) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}

type notification struct {
	RecipientID string
	Text        string
}

type recorderNotifier struct {
	mu    sync.Mutex
	notes []notification
}

func (n *recorderNotifier) Notify(_ context.Context, recipientID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, notification{RecipientID: recipientID, Text: text})
	return nil
}

func (n *recorderNotifier) sentTo(recipientID string) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification
	for _, note := range n.notes {
		if note.RecipientID == recipientID {
			out = append(out, note)
		}
	}
	return out
}

const (
	testAdminID = "admin-1"
	testBuyerID = "buyer-7"
)

var testCurrencies = []string{"rmb", "usd", "crypto"}

type testApp struct {
	products *memProducts
	orders   *memOrders
	sessions *memSessions
	notifier *recorderNotifier
	admin    *OrderAdmin
	dispatch *Dispatcher
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp() *testApp {
	log := discardLogger()
	a := &testApp{
		products: newMemProducts(),
		orders:   &memOrders{},
		sessions: newMemSessions(),
		notifier: &recorderNotifier{},
	}
	catalog := NewCatalog(a.products, a.sessions, testAdminID, testCurrencies, log)
	checkout := NewCheckout(a.products, a.orders, a.sessions, a.notifier, NopPublisher{},
		testAdminID, map[string]string{"rmb": "Alipay to shop@pay.example."}, log)
	a.admin = NewOrderAdmin(a.orders, a.notifier, NopPublisher{}, testAdminID, log)
	a.dispatch = NewDispatcher(a.sessions, catalog, checkout, a.admin, log)
	return a
}

func (a *testApp) send(kind EventKind, userID, payload string) []OutboundMessage {
	return a.dispatch.Handle(context.Background(), Event{
		UserID:  userID,
		Name:    "Tester",
		Kind:    kind,
		Payload: payload,
	})
}
