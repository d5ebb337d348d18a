package domain

import "github.com/shopspring/decimal"

// Stage marks where a user's conversation currently sits.
type Stage string

const (
	// StageIdle means no flow is in progress.
	StageIdle Stage = "idle"

	// Admin catalog authoring dialog.
	StageAddingTitle       Stage = "adding_title"
	StageAddingDescription Stage = "adding_description"
	StageAddingPrices      Stage = "adding_prices"
	StageAddingConfirm     Stage = "adding_confirm"

	// Buyer checkout flow.
	StageSelectingProduct Stage = "selecting_product"
	StageSelectingPayment Stage = "selecting_payment"
	StageEnteringEmail    Stage = "entering_email"
	StageConfirmingOrder  Stage = "confirming_order"
	StagePaymentWaiting   Stage = "payment_waiting"
)

// ProductDraft is the scratch record of the add-product dialog.
type ProductDraft struct {
	Name           string                     `json:"name"`
	Description    string                     `json:"description"`
	Prices         map[string]decimal.Decimal `json:"prices"`
	PaymentMethods []string                   `json:"payment_methods"`
}

// CheckoutDraft is the scratch record of an order in progress. OrderID is set
// only once the order has been persisted (payment-waiting stage).
type CheckoutDraft struct {
	Product       *Product `json:"product"`
	PaymentMethod string   `json:"payment_method"`
	Email         string   `json:"email"`
	OrderID       string   `json:"order_id"`
}

// Session is the per-user transient conversation record. Never persisted to
// the store; restarting a flow overwrites it wholesale.
type Session struct {
	UserID   string         `json:"user_id"`
	Name     string         `json:"name"`
	Stage    Stage          `json:"stage"`
	Draft    *ProductDraft  `json:"draft,omitempty"`
	Checkout *CheckoutDraft `json:"checkout,omitempty"`
}

// NewSession returns an idle session for userID.
func NewSession(userID, name string) *Session {
	return &Session{UserID: userID, Name: name, Stage: StageIdle}
}
