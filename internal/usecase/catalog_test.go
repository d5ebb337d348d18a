package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceTokens(t *testing.T) {
	prices, methods, err := ParsePriceTokens("rmb:50 usd:7", testCurrencies)
	require.NoError(t, err)
	assert.Equal(t, []string{"rmb", "usd"}, methods)
	assert.True(t, prices["rmb"].Equal(decimal.NewFromInt(50)))
	assert.True(t, prices["usd"].Equal(decimal.NewFromInt(7)))

	// parsing is idempotent: same input, same result
	again, methodsAgain, err := ParsePriceTokens("rmb:50 usd:7", testCurrencies)
	require.NoError(t, err)
	assert.Equal(t, methods, methodsAgain)
	assert.Len(t, again, 2)
}

func TestParsePriceTokens_UnknownCodeDropped(t *testing.T) {
	prices, methods, err := ParsePriceTokens("xx:5 rmb:10", testCurrencies)
	require.NoError(t, err)
	assert.Equal(t, []string{"rmb"}, methods)
	assert.Len(t, prices, 1)
	assert.True(t, prices["rmb"].Equal(decimal.NewFromInt(10)))
}

func TestParsePriceTokens_BadValueFailsWhole(t *testing.T) {
	prices, methods, err := ParsePriceTokens("rmb:abc", testCurrencies)
	assert.Error(t, err)
	assert.Nil(t, prices)
	assert.Nil(t, methods)

	// a bad token poisons the whole submission, even next to a good one
	_, _, err = ParsePriceTokens("rmb:50 usd:oops", testCurrencies)
	assert.Error(t, err)
}

func TestParsePriceTokens_NothingUsable(t *testing.T) {
	_, _, err := ParsePriceTokens("xx:5 yy:9", testCurrencies)
	assert.Error(t, err)

	_, _, err = ParsePriceTokens("", testCurrencies)
	assert.Error(t, err)

	// only zero prices: nothing to pay with
	_, _, err = ParsePriceTokens("rmb:0", testCurrencies)
	assert.Error(t, err)
}

func TestParsePriceTokens_ZeroPriceKeptOutOfMethods(t *testing.T) {
	prices, methods, err := ParsePriceTokens("rmb:0 usd:7", testCurrencies)
	require.NoError(t, err)
	assert.Equal(t, []string{"usd"}, methods)
	assert.Len(t, prices, 2)
}

func TestParsePriceTokens_FirstColonSplits(t *testing.T) {
	// value containing a colon is simply not a valid decimal
	_, _, err := ParsePriceTokens("rmb:1:2", testCurrencies)
	assert.Error(t, err)
}

func TestAddProductDialog(t *testing.T) {
	app := newTestApp()

	msgs := app.send(EventCommand, testAdminID, "/addproduct")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "title")

	app.send(EventText, testAdminID, "Pack")
	app.send(EventText, testAdminID, "A bundle of goods")
	msgs = app.send(EventText, testAdminID, "rmb:50")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Pack")
	assert.Contains(t, msgs[0].Text, "50 rmb")

	msgs = app.send(EventButton, testAdminID, "save")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Saved")
	assert.Contains(t, msgs[1].Text, "Catalog:")

	products, err := app.products.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	for _, p := range products {
		assert.Equal(t, "Pack", p.Name)
		assert.Equal(t, []string{"rmb"}, p.PaymentMethods)
		assert.NotEmpty(t, p.ID)
	}

	// dialog scratch is gone
	_, ok := app.sessions.Get(testAdminID)
	assert.False(t, ok)
}

func TestAddProductDialog_BadPricesReprompt(t *testing.T) {
	app := newTestApp()
	app.send(EventCommand, testAdminID, "/addproduct")
	app.send(EventText, testAdminID, "Pack")
	app.send(EventText, testAdminID, "desc")

	app.send(EventText, testAdminID, "rmb:abc")
	s, ok := app.sessions.Get(testAdminID)
	require.True(t, ok)
	assert.Equal(t, "adding_prices", string(s.Stage))
	assert.Nil(t, s.Draft.Prices)

	// nothing was saved
	products, _ := app.products.Load(context.Background())
	assert.Empty(t, products)
}

func TestAddProduct_NonAdminRejected(t *testing.T) {
	app := newTestApp()

	msgs := app.send(EventCommand, testBuyerID, "/addproduct")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "not authorized")

	_, ok := app.sessions.Get(testBuyerID)
	assert.False(t, ok)
	products, _ := app.products.Load(context.Background())
	assert.Empty(t, products)
}

func TestAddProductDialog_Discard(t *testing.T) {
	app := newTestApp()
	app.send(EventCommand, testAdminID, "/addproduct")
	app.send(EventText, testAdminID, "Pack")
	app.send(EventText, testAdminID, "desc")
	app.send(EventText, testAdminID, "rmb:50")

	msgs := app.send(EventButton, testAdminID, "discard")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Discarded")

	products, _ := app.products.Load(context.Background())
	assert.Empty(t, products)
}

func TestCatalogCommandAdminOnly(t *testing.T) {
	app := newTestApp()

	msgs := app.send(EventCommand, testAdminID, "/catalog")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "empty")

	msgs = app.send(EventCommand, testBuyerID, "/catalog")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "not authorized")
}

func TestPaymentMethodsMatchPositivePrices(t *testing.T) {
	app := newTestApp()
	app.send(EventCommand, testAdminID, "/addproduct")
	app.send(EventText, testAdminID, "Mixed")
	app.send(EventText, testAdminID, "desc")
	app.send(EventText, testAdminID, "rmb:0 usd:7 crypto:3")
	app.send(EventButton, testAdminID, "save")

	products, err := app.products.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	for _, p := range products {
		// methods are exactly the positively priced codes, in entry order
		assert.Equal(t, []string{"usd", "crypto"}, p.PaymentMethods)
		for _, code := range p.PaymentMethods {
			assert.True(t, p.Prices[code].IsPositive())
		}
		assert.False(t, p.Prices["rmb"].IsPositive())
	}
}
