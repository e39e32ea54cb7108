package rabbit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/venue-sync/internal/domain"
)

const (
	Exchange         = "venue.events"
	ChangeRoutingKey = "store.changed"
)

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, key string, msg amqp.Publishing) error {
	return p.ch.PublishWithContext(ctx, Exchange, key, false, false, msg)
}

func (p *Publisher) Name() string { return "rabbit" }

// Forward publishes the change signal under store.changed and each named
// event under its own name.
func (p *Publisher) Forward(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	keys := []string{ChangeRoutingKey}
	for _, e := range n.Events {
		keys = append(keys, string(e))
	}
	for _, key := range keys {
		msg := amqp.Publishing{
			MessageId:   uuid.New().String(),
			ContentType: "application/json",
			Timestamp:   time.Now().UTC(),
			Body:        payload,
		}
		if err := p.Publish(ctx, key, msg); err != nil {
			return err
		}
	}
	return nil
}
