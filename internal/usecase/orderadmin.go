package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	domain "github.com/lintv8/Mybot/internal/entity"
)

// OrderAdmin exposes the privileged order operations: listing, detail and
// status adjudication.
type OrderAdmin struct {
	orders   OrderRepo
	notifier Notifier
	events   EventPublisher
	adminID  string
	log      *slog.Logger
}

func NewOrderAdmin(orders OrderRepo, notifier Notifier, events EventPublisher, adminID string, log *slog.Logger) *OrderAdmin {
	return &OrderAdmin{
		orders:   orders,
		notifier: notifier,
		events:   events,
		adminID:  adminID,
		log:      log.With("component", "orderadmin"),
	}
}

// ListRecent shows up to limit orders, newest first.
func (a *OrderAdmin) ListRecent(ctx context.Context, ev Event, limit int) ([]OutboundMessage, error) {
	if ev.UserID != a.adminID {
		return nil, ErrNotAuthorized
	}
	all, err := a.orders.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	if len(all) == 0 {
		return []OutboundMessage{reply(ev.UserID, "No orders yet.")}, nil
	}

	var b strings.Builder
	b.WriteString("Recent orders:\n")
	choices := make([]Choice, 0, len(all))
	for _, o := range all {
		fmt.Fprintf(&b, "#%s  %s  %s %s  [%s]\n", o.ID, o.Product.Name, o.Amount, o.PaymentMethod, o.Status)
		choices = append(choices, Choice{Label: "#" + o.ID, Data: "order:" + o.ID})
	}
	return []OutboundMessage{reply(ev.UserID, b.String(), choices...)}, nil
}

// Details shows one full order with adjudication buttons.
func (a *OrderAdmin) Details(ctx context.Context, ev Event, orderID string) ([]OutboundMessage, error) {
	if ev.UserID != a.adminID {
		return nil, ErrNotAuthorized
	}
	o, err := a.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("Order #%s\nProduct: %s\nAmount: %s %s\nBuyer: %s (%s)\nEmail: %s\nStatus: %s\nCreated: %s",
		o.ID, o.Product.Name, o.Amount, o.PaymentMethod, o.BuyerName, o.BuyerID,
		o.Email, o.Status, o.CreatedAt.Format("2006-01-02 15:04:05"))

	var choices []Choice
	if o.Status.CanTransitionTo(domain.StatusCompleted) {
		choices = append(choices, Choice{Label: "Complete", Data: "status:" + o.ID + ":completed"})
	}
	if o.Status.CanTransitionTo(domain.StatusCancelled) {
		choices = append(choices, Choice{Label: "Cancel", Data: "status:" + o.ID + ":cancelled"})
	}
	return []OutboundMessage{reply(ev.UserID, text, choices...)}, nil
}

// SetStatus applies an admin adjudication and notifies the buyer of the new
// status. Transitions out of terminal states are refused.
func (a *OrderAdmin) SetStatus(ctx context.Context, ev Event, orderID string, to domain.Status) ([]OutboundMessage, error) {
	if ev.UserID != a.adminID {
		return nil, ErrNotAuthorized
	}
	if _, err := a.transition(ctx, orderID, to); err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			return []OutboundMessage{reply(ev.UserID,
				fmt.Sprintf("Order #%s cannot move to %s.", orderID, to))}, nil
		}
		return nil, err
	}
	return []OutboundMessage{reply(ev.UserID, fmt.Sprintf("Order #%s is now %s.", orderID, to))}, nil
}

// ApplyExternalStatus is the trusted path used by the fulfillment feed. Same
// transition rules, no conversational reply.
func (a *OrderAdmin) ApplyExternalStatus(ctx context.Context, orderID string, to domain.Status) error {
	_, err := a.transition(ctx, orderID, to)
	return err
}

// transition checks legality against the current status, updates the store
// and notifies the buyer once. The buyer notification is best effort.
func (a *OrderAdmin) transition(ctx context.Context, orderID string, to domain.Status) (domain.Order, error) {
	o, err := a.find(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !o.Status.CanTransitionTo(to) {
		return domain.Order{}, domain.ErrInvalidStatus
	}
	found, err := a.orders.UpdateStatus(ctx, orderID, to)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update status: %w", err)
	}
	if !found {
		return domain.Order{}, ErrNotFound
	}
	a.log.Info("order status changed", "order_id", orderID, "from", o.Status, "to", to)

	text := fmt.Sprintf("Your order #%s is now %s.", orderID, to)
	if to == domain.StatusCompleted {
		text += fmt.Sprintf(" Delivery goes to %s.", o.Email)
	}
	if err := a.notifier.Notify(ctx, o.BuyerID, text); err != nil {
		a.log.Warn("buyer notification failed", "order_id", orderID, "err", err)
	}
	if err := a.events.OrderStatusChanged(ctx, orderID, to); err != nil {
		a.log.Warn("status event not published", "order_id", orderID, "err", err)
	}
	o.Status = to
	return o, nil
}

func (a *OrderAdmin) find(ctx context.Context, orderID string) (domain.Order, error) {
	all, err := a.orders.Load(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load orders: %w", err)
	}
	for _, o := range all {
		if o.ID == orderID {
			return o, nil
		}
	}
	return domain.Order{}, ErrNotFound
}
