package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "github.com/lintv8/Mybot/internal/entity"
)

// Catalog owns product listing and the admin add-product dialog.
type Catalog struct {
	products   ProductRepo
	sessions   SessionStore
	adminID    string
	currencies []string
	log        *slog.Logger
}

func NewCatalog(products ProductRepo, sessions SessionStore, adminID string, currencies []string, log *slog.Logger) *Catalog {
	return &Catalog{
		products:   products,
		sessions:   sessions,
		adminID:    adminID,
		currencies: currencies,
		log:        log.With("component", "catalog"),
	}
}

// List returns the catalog sorted by product name for stable keyboards.
func (c *Catalog) List(ctx context.Context) ([]domain.Product, error) {
	byID, err := c.products.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	out := make([]domain.Product, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// BeginAdd starts the authoring dialog. Admin only; any in-progress session
// scratch is overwritten.
func (c *Catalog) BeginAdd(ctx context.Context, ev Event) ([]OutboundMessage, error) {
	if ev.UserID != c.adminID {
		return nil, ErrNotAuthorized
	}
	s := domain.NewSession(ev.UserID, ev.Name)
	s.Stage = domain.StageAddingTitle
	s.Draft = &domain.ProductDraft{}
	c.sessions.Put(ev.UserID, s)
	return []OutboundMessage{reply(ev.UserID, "New product. Send me the title:")}, nil
}

// SubmitTitle accepts any free text and advances to the description stage.
func (c *Catalog) SubmitTitle(ctx context.Context, s *domain.Session, text string) []OutboundMessage {
	s.Draft.Name = strings.TrimSpace(text)
	s.Stage = domain.StageAddingDescription
	c.sessions.Put(s.UserID, s)
	return []OutboundMessage{reply(s.UserID, "Got it. Now send the description:")}
}

// SubmitDescription accepts any free text and advances to the prices stage.
func (c *Catalog) SubmitDescription(ctx context.Context, s *domain.Session, text string) []OutboundMessage {
	s.Draft.Description = strings.TrimSpace(text)
	s.Stage = domain.StageAddingPrices
	c.sessions.Put(s.UserID, s)
	return []OutboundMessage{reply(s.UserID,
		"Prices, one token per currency, e.g. \"rmb:50 usd:7\".\nKnown currencies: "+strings.Join(c.currencies, ", "))}
}

// SubmitPrices parses the price token list. Any malformed value fails the
// whole submission and re-prompts in place; unknown currency codes are
// silently dropped.
func (c *Catalog) SubmitPrices(ctx context.Context, s *domain.Session, text string) []OutboundMessage {
	prices, methods, err := ParsePriceTokens(text, c.currencies)
	if err != nil {
		return []OutboundMessage{reply(s.UserID,
			fmt.Sprintf("⚠️ Could not read that: %s. Try again, e.g. \"rmb:50 usd:7\".", err))}
	}
	s.Draft.Prices = prices
	s.Draft.PaymentMethods = methods
	s.Stage = domain.StageAddingConfirm
	c.sessions.Put(s.UserID, s)

	preview := domain.Product{
		Name:           s.Draft.Name,
		Description:    s.Draft.Description,
		Prices:         prices,
		PaymentMethods: methods,
	}
	text = fmt.Sprintf("About to save:\n%s\n%s\n%s\nSave it?",
		preview.Name, preview.Description, preview.PriceLine())
	return []OutboundMessage{reply(s.UserID, text,
		Choice{Label: "Save", Data: "save"},
		Choice{Label: "Discard", Data: "discard"},
	)}
}

// ConfirmSave assigns a permanent id, writes the product through the store
// and clears the dialog scratch. Admin only.
func (c *Catalog) ConfirmSave(ctx context.Context, s *domain.Session) ([]OutboundMessage, error) {
	if s.UserID != c.adminID {
		return nil, ErrNotAuthorized
	}
	byID, err := c.products.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	p := domain.Product{
		ID:             NewProductID(),
		Name:           s.Draft.Name,
		Description:    s.Draft.Description,
		Prices:         s.Draft.Prices,
		PaymentMethods: s.Draft.PaymentMethods,
	}
	byID[p.ID] = p
	if err := c.products.Replace(ctx, byID); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	c.sessions.Clear(s.UserID)
	c.log.Info("product saved", "product_id", p.ID, "name", p.Name)

	msgs := []OutboundMessage{reply(s.UserID, fmt.Sprintf("✅ Saved %q (%s).", p.Name, p.PriceLine()))}
	view, err := c.ManagementView(ctx, s.UserID)
	if err != nil {
		return msgs, nil
	}
	return append(msgs, view...), nil
}

// AdminView is the command entry to the management view.
func (c *Catalog) AdminView(ctx context.Context, ev Event) ([]OutboundMessage, error) {
	if ev.UserID != c.adminID {
		return nil, ErrNotAuthorized
	}
	return c.ManagementView(ctx, ev.UserID)
}

// ManagementView renders the whole catalog for the admin.
func (c *Catalog) ManagementView(ctx context.Context, userID string) ([]OutboundMessage, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return []OutboundMessage{reply(userID, "Catalog is empty. Send /addproduct to create one.")}, nil
	}
	var b strings.Builder
	b.WriteString("Catalog:\n")
	for _, p := range all {
		fmt.Fprintf(&b, "%s — %s\n", p.Name, p.PriceLine())
	}
	return []OutboundMessage{reply(userID, b.String())}, nil
}

// Discard drops the authoring scratch without saving.
func (c *Catalog) Discard(ctx context.Context, s *domain.Session) []OutboundMessage {
	c.sessions.Clear(s.UserID)
	return []OutboundMessage{reply(s.UserID, "Discarded. Nothing was saved.")}
}

// ParsePriceTokens splits text on whitespace and each token on its first
// colon. Tokens with an unregistered currency code are dropped; a value that
// does not parse as a non-negative decimal fails the whole call with nothing
// applied. Returns the accepted prices and the positively-priced codes in
// first-seen order. Fails if no positively-priced token survives.
func ParsePriceTokens(text string, registry []string) (map[string]decimal.Decimal, []string, error) {
	known := make(map[string]bool, len(registry))
	for _, code := range registry {
		known[code] = true
	}

	prices := make(map[string]decimal.Decimal)
	var methods []string
	for _, tok := range strings.Fields(text) {
		code, raw, found := strings.Cut(tok, ":")
		if !found {
			return nil, nil, fmt.Errorf("token %q is not code:value", tok)
		}
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			return nil, nil, fmt.Errorf("price %q is not a valid amount", raw)
		}
		if !known[code] {
			continue
		}
		if _, dup := prices[code]; dup {
			continue
		}
		prices[code] = v
		if v.IsPositive() {
			methods = append(methods, code)
		}
	}
	if len(methods) == 0 {
		return nil, nil, errors.New("no usable price found")
	}
	return prices, methods, nil
}

// NewProductID derives a catalog-unique id from the wall clock plus a random
// disambiguator.
func NewProductID() string {
	return "p" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + uuid.NewString()[:6]
}
