package usecase

import (
	"context"
	"errors"

	domain "github.com/lintv8/Mybot/internal/entity"
)

var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrNotFound      = errors.New("not found")
)

// ProductRepo persists the catalog as a whole. Load never fails on missing
// backing data; it returns the seed catalog instead.
type ProductRepo interface {
	Load(ctx context.Context) (map[string]domain.Product, error)
	Replace(ctx context.Context, products map[string]domain.Product) error
}

// OrderRepo persists the append-ordered order log.
// UpdateStatus returns found=false (and no error) when id is unknown.
type OrderRepo interface {
	Load(ctx context.Context) ([]domain.Order, error)
	Append(ctx context.Context, o domain.Order) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) (bool, error)
}

// SessionStore holds per-user conversation state. Implementations may evict
// idle sessions; callers must tolerate a miss at any point.
type SessionStore interface {
	Get(userID string) (*domain.Session, bool)
	Put(userID string, s *domain.Session)
	Clear(userID string)
}

// Notifier delivers a text to a recipient, best effort. A failure is logged
// by the caller and never rolls back the state transition it follows.
type Notifier interface {
	Notify(ctx context.Context, recipientID, text string) error
}

// EventPublisher emits order lifecycle events for downstream consumers,
// best effort.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o domain.Order) error
	OrderStatusChanged(ctx context.Context, orderID string, status domain.Status) error
}
