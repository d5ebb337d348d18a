package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/lintv8/Mybot/internal/entity"
)

func seedPack(t *testing.T, app *testApp) domain.Product {
	t.Helper()
	p := domain.Product{
		ID:          "pack-1",
		Name:        "Pack",
		Description: "A bundle",
		Prices: map[string]decimal.Decimal{
			"rmb": decimal.NewFromInt(50),
			"usd": decimal.NewFromInt(7),
		},
		PaymentMethods: []string{"rmb", "usd"},
	}
	require.NoError(t, app.products.Replace(context.Background(), map[string]domain.Product{p.ID: p}))
	return p
}

func (a *testApp) placedOrder(t *testing.T) domain.Order {
	t.Helper()
	orders, err := a.orders.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	return orders[0]
}

func TestCheckoutHappyPath(t *testing.T) {
	app := newTestApp()
	seedPack(t, app)

	msgs := app.send(EventCommand, testBuyerID, "/start")
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Choices, 1)
	assert.Equal(t, "product:pack-1", msgs[0].Choices[0].Data)

	msgs = app.send(EventButton, testBuyerID, "product:pack-1")
	require.Len(t, msgs, 1)
	assert.Len(t, msgs[0].Choices, 2) // one per payment method

	app.send(EventButton, testBuyerID, "pay:rmb")
	app.send(EventText, testBuyerID, "a@b.com")
	msgs = app.send(EventButton, testBuyerID, "confirm")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Amount due: 50 rmb")

	o := app.placedOrder(t)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.True(t, o.Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "a@b.com", o.Email)
	assert.Equal(t, "rmb", o.PaymentMethod)
	assert.Equal(t, testBuyerID, o.BuyerID)
	assert.False(t, o.UpdatedAt.Before(o.CreatedAt))

	// admin heard about it exactly once
	require.Len(t, app.notifier.sentTo(testAdminID), 1)
	assert.Contains(t, app.notifier.sentTo(testAdminID)[0].Text, o.ID)
}

func TestCheckoutSnapshotSurvivesCatalogEdit(t *testing.T) {
	app := newTestApp()
	p := seedPack(t, app)

	app.send(EventCommand, testBuyerID, "/start")
	app.send(EventButton, testBuyerID, "product:pack-1")
	app.send(EventButton, testBuyerID, "pay:rmb")
	app.send(EventText, testBuyerID, "a@b.com")
	app.send(EventButton, testBuyerID, "confirm")

	// repricing (and even removing) the live product must not touch the order
	p.Prices["rmb"] = decimal.NewFromInt(999)
	require.NoError(t, app.products.Replace(context.Background(), map[string]domain.Product{}))

	o := app.placedOrder(t)
	assert.True(t, o.Amount.Equal(decimal.NewFromInt(50)))
	assert.True(t, o.Product.Prices["rmb"].Equal(decimal.NewFromInt(50)))
	assert.True(t, o.Amount.Equal(o.Product.Prices[o.PaymentMethod]))
}

func TestCheckoutBadEmailLoops(t *testing.T) {
	app := newTestApp()
	seedPack(t, app)

	app.send(EventCommand, testBuyerID, "/start")
	app.send(EventButton, testBuyerID, "product:pack-1")
	app.send(EventButton, testBuyerID, "pay:rmb")

	for _, bad := range []string{"not-an-email", "a@b", "a b@c.com", "@c.com", "a@", "a@.com"} {
		msgs := app.send(EventText, testBuyerID, bad)
		require.Len(t, msgs, 1, "input %q", bad)
		assert.Contains(t, msgs[0].Text, "email", "input %q", bad)

		s, ok := app.sessions.Get(testBuyerID)
		require.True(t, ok)
		assert.Equal(t, domain.StageEnteringEmail, s.Stage, "input %q", bad)
	}

	orders, _ := app.orders.Load(context.Background())
	assert.Empty(t, orders)

	// then a good one goes through
	app.send(EventText, testBuyerID, "a.user+tag@mail-host.example.com")
	s, _ := app.sessions.Get(testBuyerID)
	assert.Equal(t, domain.StageConfirmingOrder, s.Stage)
}

func TestCheckoutAbortAtConfirm(t *testing.T) {
	app := newTestApp()
	seedPack(t, app)

	app.send(EventCommand, testBuyerID, "/start")
	app.send(EventButton, testBuyerID, "product:pack-1")
	app.send(EventButton, testBuyerID, "pay:usd")
	app.send(EventText, testBuyerID, "a@b.com")
	msgs := app.send(EventButton, testBuyerID, "abort")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Cancelled")

	orders, _ := app.orders.Load(context.Background())
	assert.Empty(t, orders)
	_, ok := app.sessions.Get(testBuyerID)
	assert.False(t, ok)
}

func TestCheckoutWrongPaymentMethodRejected(t *testing.T) {
	app := newTestApp()
	seedPack(t, app)

	app.send(EventCommand, testBuyerID, "/start")
	app.send(EventButton, testBuyerID, "product:pack-1")
	msgs := app.send(EventButton, testBuyerID, "pay:crypto")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "not available")

	s, _ := app.sessions.Get(testBuyerID)
	assert.Equal(t, domain.StageSelectingPayment, s.Stage)
}

func TestBuyerReportsPaid(t *testing.T) {
	app := newTestApp()
	seedPack(t, app)

	app.send(EventCommand, testBuyerID, "/start")
	app.send(EventButton, testBuyerID, "product:pack-1")
	app.send(EventButton, testBuyerID, "pay:rmb")
	app.send(EventText, testBuyerID, "a@b.com")
	app.send(EventButton, testBuyerID, "confirm")

	msgs := app.send(EventButton, testBuyerID, "paid")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "paid")

	o := app.placedOrder(t)
	assert.Equal(t, domain.StatusPaid, o.Status)
	// new order + payment report
	assert.Len(t, app.notifier.sentTo(testAdminID), 2)
}

func TestBuyerCancelsPlacedOrder(t *testing.T) {
	app := newTestApp()
	seedPack(t, app)

	app.send(EventCommand, testBuyerID, "/start")
	app.send(EventButton, testBuyerID, "product:pack-1")
	app.send(EventButton, testBuyerID, "pay:rmb")
	app.send(EventText, testBuyerID, "a@b.com")
	app.send(EventButton, testBuyerID, "confirm")

	msgs := app.send(EventButton, testBuyerID, "cancel-order")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "cancelled")

	o := app.placedOrder(t)
	assert.Equal(t, domain.StatusCancelled, o.Status)
}

func TestPaidReportAfterAdjudicationRefused(t *testing.T) {
	app := newTestApp()
	seedPack(t, app)

	app.send(EventCommand, testBuyerID, "/start")
	app.send(EventButton, testBuyerID, "product:pack-1")
	app.send(EventButton, testBuyerID, "pay:rmb")
	app.send(EventText, testBuyerID, "a@b.com")
	app.send(EventButton, testBuyerID, "confirm")
	o := app.placedOrder(t)

	// admin adjudicates while the buyer is still at the payment prompt
	app.send(EventButton, testAdminID, "status:"+o.ID+":cancelled")
	require.Equal(t, domain.StatusCancelled, app.placedOrder(t).Status)

	msgs := app.send(EventButton, testBuyerID, "paid")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "already cancelled")

	assert.Equal(t, domain.StatusCancelled, app.placedOrder(t).Status)
	_, ok := app.sessions.Get(testBuyerID)
	assert.False(t, ok)
	// new order only; no payment report for the refused press
	assert.Len(t, app.notifier.sentTo(testAdminID), 1)
}

func TestBuyerCancelAfterCompletionRefused(t *testing.T) {
	app := newTestApp()
	seedPack(t, app)

	app.send(EventCommand, testBuyerID, "/start")
	app.send(EventButton, testBuyerID, "product:pack-1")
	app.send(EventButton, testBuyerID, "pay:rmb")
	app.send(EventText, testBuyerID, "a@b.com")
	app.send(EventButton, testBuyerID, "confirm")
	o := app.placedOrder(t)

	require.NoError(t, app.admin.ApplyExternalStatus(context.Background(), o.ID, domain.StatusPaid))
	require.NoError(t, app.admin.ApplyExternalStatus(context.Background(), o.ID, domain.StatusCompleted))

	msgs := app.send(EventButton, testBuyerID, "cancel-order")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "already completed")
	assert.Equal(t, domain.StatusCompleted, app.placedOrder(t).Status)
}

func TestNewOrderIDUnique(t *testing.T) {
	const n = 500
	var (
		mu  sync.Mutex
		ids = make(map[string]bool, n)
		wg  sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := NewOrderID(testBuyerID)
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, ids, n)
}
