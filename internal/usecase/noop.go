package usecase

import (
	"context"
	"log/slog"

	domain "github.com/lintv8/Mybot/internal/entity"
)

// LogNotifier writes notifications to the log. Used when no broker is
// configured; keeps local runs observable.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, recipientID, text string) error {
	n.Log.Info("notify", "recipient", recipientID, "text", text)
	return nil
}

// NopPublisher discards lifecycle events.
type NopPublisher struct{}

func (NopPublisher) OrderCreated(context.Context, domain.Order) error { return nil }
func (NopPublisher) OrderStatusChanged(context.Context, string, domain.Status) error {
	return nil
}

var (
	_ Notifier       = LogNotifier{}
	_ EventPublisher = NopPublisher{}
)
