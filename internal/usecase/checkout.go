package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	domain "github.com/lintv8/Mybot/internal/entity"
)

// emailPattern accepts a plain local@domain.tld shape and nothing else.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9_.+-]+@[A-Za-z0-9-]+(\.[A-Za-z0-9-.]+)+$`)

// Checkout drives the buyer state machine:
// selecting_product -> selecting_payment -> entering_email ->
// confirming_order -> payment_waiting.
type Checkout struct {
	products     ProductRepo
	orders       OrderRepo
	sessions     SessionStore
	notifier     Notifier
	events       EventPublisher
	adminID      string
	instructions map[string]string // payment instructions per currency code
	log          *slog.Logger
}

func NewCheckout(products ProductRepo, orders OrderRepo, sessions SessionStore,
	notifier Notifier, events EventPublisher, adminID string,
	instructions map[string]string, log *slog.Logger) *Checkout {
	return &Checkout{
		products:     products,
		orders:       orders,
		sessions:     sessions,
		notifier:     notifier,
		events:       events,
		adminID:      adminID,
		instructions: instructions,
		log:          log.With("component", "checkout"),
	}
}

// Begin shows the catalog and starts a fresh checkout session, overwriting
// whatever flow the user had in progress.
func (c *Checkout) Begin(ctx context.Context, ev Event) ([]OutboundMessage, error) {
	byID, err := c.products.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	catalog := make([]domain.Product, 0, len(byID))
	for _, p := range byID {
		catalog = append(catalog, p)
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Name < catalog[j].Name })

	s := domain.NewSession(ev.UserID, ev.Name)
	s.Stage = domain.StageSelectingProduct
	s.Checkout = &domain.CheckoutDraft{}
	c.sessions.Put(ev.UserID, s)

	choices := make([]Choice, 0, len(catalog))
	for _, p := range catalog {
		choices = append(choices, Choice{Label: p.Name, Data: "product:" + p.ID})
	}
	return []OutboundMessage{reply(ev.UserID, "Please choose a product:", choices...)}, nil
}

// SelectProduct stashes the chosen product and moves to payment selection.
func (c *Checkout) SelectProduct(ctx context.Context, s *domain.Session, productID string) ([]OutboundMessage, error) {
	byID, err := c.products.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	p, ok := byID[productID]
	if !ok {
		return []OutboundMessage{reply(s.UserID, "That product is gone. Send /start to browse again.")}, nil
	}
	s.Checkout.Product = &p
	s.Stage = domain.StageSelectingPayment
	c.sessions.Put(s.UserID, s)

	choices := make([]Choice, 0, len(p.PaymentMethods))
	for _, code := range p.PaymentMethods {
		choices = append(choices, Choice{
			Label: fmt.Sprintf("%s %s", p.Prices[code], code),
			Data:  "pay:" + code,
		})
	}
	text := fmt.Sprintf("%s\n%s\n\nHow would you like to pay?", p.Name, p.Description)
	return []OutboundMessage{reply(s.UserID, text, choices...)}, nil
}

// SelectPayment validates the method against the stashed product and moves
// to email entry.
func (c *Checkout) SelectPayment(ctx context.Context, s *domain.Session, code string) []OutboundMessage {
	if !s.Checkout.Product.AcceptsMethod(code) {
		return []OutboundMessage{reply(s.UserID, "That payment method is not available for this product.")}
	}
	s.Checkout.PaymentMethod = code
	s.Stage = domain.StageEnteringEmail
	c.sessions.Put(s.UserID, s)
	return []OutboundMessage{reply(s.UserID, "Where should we deliver? Send your email address:")}
}

// SubmitEmail validates shape and moves to confirmation; on a bad address it
// re-prompts and stays put.
func (c *Checkout) SubmitEmail(ctx context.Context, s *domain.Session, text string) []OutboundMessage {
	if !emailPattern.MatchString(text) {
		return []OutboundMessage{reply(s.UserID, "⚠️ That doesn't look like an email address. Try again:")}
	}
	s.Checkout.Email = text
	s.Stage = domain.StageConfirmingOrder
	c.sessions.Put(s.UserID, s)

	p := s.Checkout.Product
	price := p.Prices[s.Checkout.PaymentMethod]
	summary := fmt.Sprintf("Order summary:\n%s — %s %s\nDelivery: %s\n\nConfirm?",
		p.Name, price, s.Checkout.PaymentMethod, s.Checkout.Email)
	return []OutboundMessage{reply(s.UserID, summary,
		Choice{Label: "Confirm", Data: "confirm"},
		Choice{Label: "Cancel", Data: "abort"},
	)}
}

// Confirm snapshots the product, persists the pending order, notifies the
// admin and presents payment instructions. Amount and method are fixed here
// for the life of the order.
func (c *Checkout) Confirm(ctx context.Context, s *domain.Session) ([]OutboundMessage, error) {
	now := time.Now().UTC()
	snapshot := s.Checkout.Product.Clone()
	o := domain.Order{
		ID:            NewOrderID(s.UserID),
		BuyerID:       s.UserID,
		BuyerName:     s.Name,
		Product:       snapshot,
		Email:         s.Checkout.Email,
		PaymentMethod: s.Checkout.PaymentMethod,
		Amount:        snapshot.Prices[s.Checkout.PaymentMethod],
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.orders.Append(ctx, o); err != nil {
		return nil, fmt.Errorf("append order: %w", err)
	}

	s.Checkout.OrderID = o.ID
	s.Stage = domain.StagePaymentWaiting
	c.sessions.Put(s.UserID, s)

	c.notifyAdmin(ctx, fmt.Sprintf("🛒 New order #%s: %s — %s %s, buyer %s <%s>",
		o.ID, o.Product.Name, o.Amount, o.PaymentMethod, o.BuyerName, o.Email))
	if err := c.events.OrderCreated(ctx, o); err != nil {
		c.log.Warn("order created event not published", "order_id", o.ID, "err", err)
	}
	c.log.Info("order created", "order_id", o.ID, "buyer_id", o.BuyerID, "amount", o.Amount)

	text := fmt.Sprintf("Order #%s placed.\n%s\nOnce you have paid, press the button below.",
		o.ID, c.paymentInstructions(o.PaymentMethod, o.Amount.String()))
	return []OutboundMessage{reply(s.UserID, text,
		Choice{Label: "I have paid", Data: "paid"},
		Choice{Label: "Cancel order", Data: "cancel-order"},
	)}, nil
}

// Abort ends the flow at the confirmation step. No order was created.
func (c *Checkout) Abort(ctx context.Context, s *domain.Session) []OutboundMessage {
	c.sessions.Clear(s.UserID)
	return []OutboundMessage{reply(s.UserID, "Cancelled. Nothing was ordered.")}
}

// ReportPaid records the buyer's manual payment report. If the admin already
// adjudicated the order, the report is refused and the stale session dropped.
func (c *Checkout) ReportPaid(ctx context.Context, s *domain.Session) ([]OutboundMessage, error) {
	orderID := s.Checkout.OrderID
	o, err := c.findOrder(ctx, orderID)
	if err != nil {
		c.sessions.Clear(s.UserID)
		return nil, err
	}
	if !o.Status.CanTransitionTo(domain.StatusPaid) {
		c.sessions.Clear(s.UserID)
		return []OutboundMessage{reply(s.UserID,
			fmt.Sprintf("Order #%s is already %s and cannot be marked paid.", orderID, o.Status))}, nil
	}
	found, err := c.orders.UpdateStatus(ctx, orderID, domain.StatusPaid)
	if err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}
	if !found {
		c.sessions.Clear(s.UserID)
		return nil, ErrNotFound
	}
	c.sessions.Clear(s.UserID)

	c.notifyAdmin(ctx, fmt.Sprintf("💰 Buyer reports payment for order #%s", orderID))
	if err := c.events.OrderStatusChanged(ctx, orderID, domain.StatusPaid); err != nil {
		c.log.Warn("status event not published", "order_id", orderID, "err", err)
	}
	return []OutboundMessage{reply(s.UserID,
		fmt.Sprintf("Thanks! Order #%s is marked as paid. You'll hear from us once it is confirmed.", orderID))}, nil
}

// CancelPending cancels an order the buyer had already placed. Orders in a
// terminal state stay where they are.
func (c *Checkout) CancelPending(ctx context.Context, s *domain.Session) ([]OutboundMessage, error) {
	orderID := s.Checkout.OrderID
	o, err := c.findOrder(ctx, orderID)
	if err != nil {
		c.sessions.Clear(s.UserID)
		return nil, err
	}
	if !o.Status.CanTransitionTo(domain.StatusCancelled) {
		c.sessions.Clear(s.UserID)
		return []OutboundMessage{reply(s.UserID,
			fmt.Sprintf("Order #%s is already %s and cannot be cancelled.", orderID, o.Status))}, nil
	}
	found, err := c.orders.UpdateStatus(ctx, orderID, domain.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if !found {
		c.sessions.Clear(s.UserID)
		return nil, ErrNotFound
	}
	c.sessions.Clear(s.UserID)

	c.notifyAdmin(ctx, fmt.Sprintf("❌ Buyer cancelled order #%s", orderID))
	if err := c.events.OrderStatusChanged(ctx, orderID, domain.StatusCancelled); err != nil {
		c.log.Warn("status event not published", "order_id", orderID, "err", err)
	}
	return []OutboundMessage{reply(s.UserID,
		fmt.Sprintf("✅ Order #%s cancelled. Come back any time.", orderID))}, nil
}

func (c *Checkout) findOrder(ctx context.Context, orderID string) (domain.Order, error) {
	all, err := c.orders.Load(ctx)
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

func (c *Checkout) paymentInstructions(code, amount string) string {
	if instr, ok := c.instructions[code]; ok {
		return fmt.Sprintf("Amount due: %s %s\n%s", amount, code, instr)
	}
	return fmt.Sprintf("Amount due: %s %s. Payment details will follow from the admin.", amount, code)
}

// notifyAdmin is fire-and-forget: delivery failure is logged, never returned.
func (c *Checkout) notifyAdmin(ctx context.Context, text string) {
	if err := c.notifier.Notify(ctx, c.adminID, text); err != nil {
		c.log.Warn("admin notification failed", "err", err)
	}
}

// NewOrderID is collision-free across concurrent creations: a nanosecond
// timestamp plus the buyer identity plus a random fragment.
func NewOrderID(buyerID string) string {
	return strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + buyerID + "-" + uuid.NewString()[:8]
}
