package usecase

// NotificationMsg is published to the notification exchange for the
// transport bridge to deliver.
type NotificationMsg struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

// OrderCreatedMsg is emitted on the event stream when an order is persisted.
type OrderCreatedMsg struct {
	OrderID       string `json:"orderId"`
	BuyerID       string `json:"buyerId"`
	ProductID     string `json:"productId"`
	PaymentMethod string `json:"paymentMethod"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// OrderStatusChangedMsg carries a status transition, outbound on the event
// stream and inbound from the fulfillment feed.
type OrderStatusChangedMsg struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"` // e.g. "DELIVERED", "REJECTED"
}
