package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lintv8/Mybot/internal/usecase"
)

// RabbitNotifier publishes notifications for the transport bridge to render
// and deliver. Fire-and-forget from the core's perspective: callers log a
// publish failure and move on.
type RabbitNotifier struct {
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

// NewRabbitNotifier declares the exchange, queue and binding once at startup.
func NewRabbitNotifier(ch *amqp.Channel, exchange, routingKey string) (*RabbitNotifier, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		routingKey+".q",
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	return &RabbitNotifier{ch: ch, exchange: exchange, routingKey: routingKey}, nil
}

// Notify publishes one NotificationMsg.
func (n *RabbitNotifier) Notify(ctx context.Context, recipientID, text string) error {
	body, err := json.Marshal(usecase.NotificationMsg{RecipientID: recipientID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Body:         body,
	}
	if err := n.ch.PublishWithContext(ctx, n.exchange, n.routingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

var _ usecase.Notifier = (*RabbitNotifier)(nil)
