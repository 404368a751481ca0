package mail

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kafelog/kafelog-web/middleware"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// AMQPProvider hands messages to an external mail worker over RabbitMQ.
type AMQPProvider struct {
	conn       *amqp.Connection
	ch         amqpChannel
	exchange   string
	routingKey string
}

type queuedMessage struct {
	Type string `json:"type"`
	Message
}

func NewAMQPProvider(url, exchange, routingKey string) (*AMQPProvider, error) {
	if url == "" {
		return nil, fmt.Errorf("AMQP_URL is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := newAMQPProvider(ch, exchange, routingKey)
	p.conn = conn
	return p, nil
}

func newAMQPProvider(ch amqpChannel, exchange, routingKey string) *AMQPProvider {
	return &AMQPProvider{ch: ch, exchange: exchange, routingKey: routingKey}
}

func (p *AMQPProvider) Send(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(queuedMessage{Type: "waitlist_signup", Message: *msg})
	if err != nil {
		return err
	}

	headers := amqp.Table{}
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		headers["X-Request-ID"] = reqID
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Headers:      headers,
	}); err != nil {
		return fmt.Errorf("failed to publish mail message: %w", err)
	}
	return nil
}

func (p *AMQPProvider) Name() string {
	return "amqp"
}

// Ping reports a closed channel.
func (p *AMQPProvider) Ping(context.Context) error {
	if p.ch.IsClosed() {
		return fmt.Errorf("amqp channel closed")
	}
	return nil
}

func (p *AMQPProvider) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
