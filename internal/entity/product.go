package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. PaymentMethods holds the currency codes with a
// positive price, in the order the admin entered them.
type Product struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Description    string                     `json:"description"`
	Prices         map[string]decimal.Decimal `json:"prices"`
	PaymentMethods []string                   `json:"payment_methods"`
}

// Clone returns a deep copy, safe to embed as an order snapshot.
func (p Product) Clone() Product {
	out := p
	out.Prices = make(map[string]decimal.Decimal, len(p.Prices))
	for code, v := range p.Prices {
		out.Prices[code] = v
	}
	out.PaymentMethods = append([]string(nil), p.PaymentMethods...)
	return out
}

// PriceFor looks up the price for a currency code.
func (p Product) PriceFor(code string) (decimal.Decimal, bool) {
	v, ok := p.Prices[code]
	return v, ok
}

// AcceptsMethod reports whether code is one of the product's payment methods.
func (p Product) AcceptsMethod(code string) bool {
	for _, m := range p.PaymentMethods {
		if m == code {
			return true
		}
	}
	return false
}

// PriceLine renders the accepted prices in method order, e.g. "50 rmb / 7 usd".
func (p Product) PriceLine() string {
	parts := make([]string, 0, len(p.PaymentMethods))
	for _, code := range p.PaymentMethods {
		parts = append(parts, p.Prices[code].String()+" "+code)
	}
	return strings.Join(parts, " / ")
}
