package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"

	domain "github.com/lintv8/Mybot/internal/entity"
	"github.com/lintv8/Mybot/internal/usecase"
)

// HandlerFunc processes one decoded fulfillment decision.
type HandlerFunc func(ctx context.Context, ev usecase.OrderStatusChangedMsg) error

// StatusFeed consumes external fulfillment decisions and applies them to the
// order log through the trusted admin path.
type StatusFeed struct {
	Group  sarama.ConsumerGroup
	Topics []string
	Handle HandlerFunc
	Log    *slog.Logger
}

func NewStatusFeed(group sarama.ConsumerGroup, topics []string, h HandlerFunc, log *slog.Logger) *StatusFeed {
	return &StatusFeed{
		Group:  group,
		Topics: topics,
		Handle: h,
		Log:    log.With("component", "status-feed"),
	}
}

func (f *StatusFeed) Start(ctx context.Context) error {
	handler := &cgHandler{handle: f.Handle, log: f.Log}
	for {
		if err := f.Group.Consume(ctx, f.Topics, handler); err != nil {
			return err
		}
		// Consume returns on rebalance or cancellation.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type cgHandler struct {
	handle HandlerFunc
	log    *slog.Logger
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var ev usecase.OrderStatusChangedMsg
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			h.log.Warn("feed decode error", "offset", msg.Offset, "err", err)
			// mark to avoid reprocessing poison
			sess.MarkMessage(msg, "decode-error")
			continue
		}
		if err := h.handle(sess.Context(), ev); err != nil {
			h.log.Warn("feed handler error", "order_id", ev.OrderID, "err", err)
			sess.MarkMessage(msg, "handler-error")
			continue
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

// NewFulfillmentHandler maps feed statuses onto order transitions. Unknown
// orders and illegal transitions are swallowed after logging: the feed must
// never wedge on a stale decision.
func NewFulfillmentHandler(admin *usecase.OrderAdmin, log *slog.Logger) HandlerFunc {
	l := log.With("component", "fulfillment")
	return func(ctx context.Context, ev usecase.OrderStatusChangedMsg) error {
		var to domain.Status
		switch ev.Status {
		case "DELIVERED":
			to = domain.StatusCompleted
		case "REJECTED":
			to = domain.StatusCancelled
		default:
			l.Warn("unknown feed status", "order_id", ev.OrderID, "status", ev.Status)
			return nil
		}
		err := admin.ApplyExternalStatus(ctx, ev.OrderID, to)
		if errors.Is(err, usecase.ErrNotFound) || errors.Is(err, domain.ErrInvalidStatus) {
			l.Warn("feed decision not applicable", "order_id", ev.OrderID, "to", to, "err", err)
			return nil
		}
		return err
	}
}
