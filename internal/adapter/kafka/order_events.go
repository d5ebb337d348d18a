package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	domain "github.com/lintv8/Mybot/internal/entity"
	"github.com/lintv8/Mybot/internal/usecase"
)

// OrderEventPublisher emits order lifecycle events to a single topic, keyed
// by order id so one order's events stay in partition order.
type OrderEventPublisher struct {
	prod  sarama.SyncProducer
	topic string
}

func NewOrderEventPublisher(prod sarama.SyncProducer, topic string) *OrderEventPublisher {
	return &OrderEventPublisher{prod: prod, topic: topic}
}

func (p *OrderEventPublisher) OrderCreated(ctx context.Context, o domain.Order) error {
	return p.send(o.ID, usecase.OrderCreatedMsg{
		OrderID:       o.ID,
		BuyerID:       o.BuyerID,
		ProductID:     o.Product.ID,
		PaymentMethod: o.PaymentMethod,
		Amount:        o.Amount.String(),
		Currency:      o.PaymentMethod,
	})
}

func (p *OrderEventPublisher) OrderStatusChanged(ctx context.Context, orderID string, status domain.Status) error {
	return p.send(orderID, usecase.OrderStatusChangedMsg{OrderID: orderID, Status: string(status)})
}

func (p *OrderEventPublisher) send(key string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, _, err = p.prod.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(body),
	})
	if err != nil {
		return fmt.Errorf("produce: %w", err)
	}
	return nil
}

var _ usecase.EventPublisher = (*OrderEventPublisher)(nil)
