package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/macrotrack/apiserver/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient publishes events to a queue through the default exchange.
type RabbitMQClient struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	durable    bool
	autoDelete bool

	mu       sync.Mutex
	declared map[string]bool
}

// NewRabbitMQClient dials the broker and opens one AMQP channel.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{
		conn:       conn,
		ch:         ch,
		durable:    cfg.QueueDurable,
		autoDelete: cfg.QueueAutoDelete,
		declared:   make(map[string]bool),
	}, nil
}

// Declare creates the event queue. Later calls for the same queue are no-ops.
func (r *RabbitMQClient) Declare(_ context.Context, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.declared[channel] {
		return nil
	}
	if _, err := r.ch.QueueDeclare(channel, r.durable, r.autoDelete, false, false, nil); err != nil {
		return err
	}
	r.declared[channel] = true
	return nil
}

// Publish routes msg to the queue named channel. The event type travels in
// the AMQP type property and the routing attributes in the headers.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, msg Message) (string, error) {
	if err := r.requireDeclared(channel); err != nil {
		return "", err
	}

	headers := make(amqp.Table, len(msg.Attributes))
	for key, value := range msg.Attributes {
		headers[key] = value
	}
	mode := amqp.Transient
	if r.durable {
		mode = amqp.Persistent
	}

	id := uuid.NewString()
	err := r.ch.PublishWithContext(ctx, "", channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		MessageId:    id,
		Timestamp:    time.Now().UTC(),
		Type:         string(msg.Type),
		Headers:      headers,
		Body:         msg.Data,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Subscribe consumes the queue until ctx is done. Failed deliveries are
// requeued.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if err := r.requireDeclared(channel); err != nil {
		return err
	}

	tag := "macro-events-" + uuid.NewString()
	deliveries, err := r.ch.Consume(channel, tag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.ch.Cancel(tag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			attrs := headersToAttributes(delivery.Headers)
			message := Message{
				ID:         delivery.MessageId,
				Type:       messageType(delivery.Type, attrs),
				Data:       delivery.Body,
				Attributes: attrs,
			}
			if err := handler(ctx, message); err != nil {
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the AMQP channel and connection.
func (r *RabbitMQClient) Close() error {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) requireDeclared(channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.declared[channel] {
		return fmt.Errorf("rabbitmq queue %q is not declared", channel)
	}
	return nil
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
