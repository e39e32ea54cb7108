package rabbit

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/venue-sync/internal/domain"
)

type Consumer struct {
	ch    *amqp.Channel
	queue string
}

// NewConsumer declares queue and binds it to every routing key of the events
// exchange.
func NewConsumer(conn *amqp.Connection, queue string) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	_, err = ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	if err := ch.QueueBind(queue, "#", Exchange, false, nil); err != nil {
		return nil, err
	}
	return &Consumer{ch: ch, queue: queue}, nil
}

// Consume calls handle for every delivery until ctx is done. A delivery is
// acked when handle succeeds and dropped when its body cannot be decoded.
func (c *Consumer) Consume(ctx context.Context, handle func(ctx context.Context, key string, n domain.Notification) error) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var n domain.Notification
			if err := json.Unmarshal(d.Body, &n); err != nil {
				d.Nack(false, false)
				continue
			}
			if err := handle(ctx, d.RoutingKey, n); err != nil {
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		}
	}
}
