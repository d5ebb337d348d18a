package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	domain "github.com/lintv8/Mybot/internal/entity"
)

const recentOrdersLimit = 10

// Dispatcher routes each inbound event by (current stage, event shape) to
// exactly one handler. Events are handled one at a time: a user's next input
// only makes sense after the previous one, and the store below serializes
// its own writes.
type Dispatcher struct {
	mu       sync.Mutex
	sessions SessionStore
	catalog  *Catalog
	checkout *Checkout
	admin    *OrderAdmin
	log      *slog.Logger
}

func NewDispatcher(sessions SessionStore, catalog *Catalog, checkout *Checkout, admin *OrderAdmin, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		catalog:  catalog,
		checkout: checkout,
		admin:    admin,
		log:      log.With("component", "dispatcher"),
	}
}

// Handle processes one event and returns the messages to deliver. It never
// returns an error to the transport: failures become a reply to the user.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) []OutboundMessage {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions.Get(ev.UserID)
	if !ok {
		s = domain.NewSession(ev.UserID, ev.Name)
	}

	var (
		msgs []OutboundMessage
		err  error
	)
	switch ev.Kind {
	case EventCommand:
		msgs, err = d.handleCommand(ctx, ev, s)
	case EventButton:
		msgs, err = d.handleButton(ctx, ev, s)
	case EventText:
		msgs = d.handleText(ctx, ev, s)
	default:
		msgs = d.unavailable(ev)
	}
	return d.finish(ev, msgs, err)
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev Event, s *domain.Session) ([]OutboundMessage, error) {
	switch strings.TrimPrefix(ev.Payload, "/") {
	case "start", "shop":
		return d.checkout.Begin(ctx, ev)
	case "addproduct":
		return d.catalog.BeginAdd(ctx, ev)
	case "catalog":
		return d.catalog.AdminView(ctx, ev)
	case "orders":
		return d.admin.ListRecent(ctx, ev, recentOrdersLimit)
	case "cancel":
		d.sessions.Clear(ev.UserID)
		return []OutboundMessage{reply(ev.UserID, "Okay, cancelled. Send /start to browse products.")}, nil
	}
	return d.unavailable(ev), nil
}

func (d *Dispatcher) handleButton(ctx context.Context, ev Event, s *domain.Session) ([]OutboundMessage, error) {
	action, arg, _ := strings.Cut(ev.Payload, ":")

	switch action {
	case "product":
		if s.Stage == domain.StageSelectingProduct {
			return d.checkout.SelectProduct(ctx, s, arg)
		}
	case "pay":
		if s.Stage == domain.StageSelectingPayment {
			return d.checkout.SelectPayment(ctx, s, arg), nil
		}
	case "confirm":
		if s.Stage == domain.StageConfirmingOrder {
			return d.checkout.Confirm(ctx, s)
		}
	case "abort":
		if s.Stage == domain.StageConfirmingOrder {
			return d.checkout.Abort(ctx, s), nil
		}
	case "paid":
		if s.Stage == domain.StagePaymentWaiting {
			return d.checkout.ReportPaid(ctx, s)
		}
	case "cancel-order":
		if s.Stage == domain.StagePaymentWaiting {
			return d.checkout.CancelPending(ctx, s)
		}
	case "save":
		if s.Stage == domain.StageAddingConfirm {
			return d.catalog.ConfirmSave(ctx, s)
		}
	case "discard":
		if s.Stage == domain.StageAddingConfirm {
			return d.catalog.Discard(ctx, s), nil
		}
	case "order":
		return d.admin.Details(ctx, ev, arg)
	case "status":
		orderID, rawStatus, ok := strings.Cut(arg, ":")
		if !ok {
			break
		}
		to, perr := domain.ParseStatus(rawStatus)
		if perr != nil {
			break
		}
		return d.admin.SetStatus(ctx, ev, orderID, to)
	}
	return d.unavailable(ev), nil
}

func (d *Dispatcher) handleText(ctx context.Context, ev Event, s *domain.Session) []OutboundMessage {
	switch s.Stage {
	case domain.StageAddingTitle:
		return d.catalog.SubmitTitle(ctx, s, ev.Payload)
	case domain.StageAddingDescription:
		return d.catalog.SubmitDescription(ctx, s, ev.Payload)
	case domain.StageAddingPrices:
		return d.catalog.SubmitPrices(ctx, s, ev.Payload)
	case domain.StageEnteringEmail:
		return d.checkout.SubmitEmail(ctx, s, ev.Payload)
	}
	return d.unavailable(ev)
}

// finish maps handler errors onto replies. Persistence failures leave the
// session untouched so the user can retry the same input.
func (d *Dispatcher) finish(ev Event, msgs []OutboundMessage, err error) []OutboundMessage {
	switch {
	case err == nil:
		return msgs
	case errors.Is(err, ErrNotAuthorized):
		d.log.Warn("unauthorized", "user_id", ev.UserID, "payload", ev.Payload)
		return []OutboundMessage{reply(ev.UserID, "You are not authorized to do that.")}
	case errors.Is(err, ErrNotFound):
		return []OutboundMessage{reply(ev.UserID, "That order could not be found.")}
	default:
		d.log.Error("event handling failed", "user_id", ev.UserID, "kind", ev.Kind, "err", err)
		return []OutboundMessage{reply(ev.UserID, "⚠️ Something went wrong. Please try again.")}
	}
}

func (d *Dispatcher) unavailable(ev Event) []OutboundMessage {
	return []OutboundMessage{reply(ev.UserID, "That operation is not available right now. Send /start to begin.")}
}
