package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/macrotrack/apiserver/config"
	"github.com/macrotrack/apiserver/types"
)

// Supported values for MQ_BACKEND.
const (
	BackendNone     = "none"
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"
)

// Routing attributes carried next to every event payload.
const (
	AttrEventType = "event_type"
	AttrUserID    = "user_id"
)

// Message is a single event delivery, independent of the broker.
type Message struct {
	ID         string
	Type       types.EventType
	Data       []byte
	Attributes map[string]string
}

// Handler processes a raw delivery. Returning an error requeues it.
type Handler func(ctx context.Context, msg Message) error

// EventHandler processes a decoded event. Returning an error requeues it.
type EventHandler func(ctx context.Context, id string, event types.Event) error

// Backend is implemented by each supported broker.
type Backend interface {
	// Declare creates the channel if it does not exist yet.
	Declare(ctx context.Context, channel string) error
	Publish(ctx context.Context, channel string, msg Message) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ publishes and consumes macro events on a single declared channel.
type MQ struct {
	backend Backend
	channel string
}

// New declares channel on backend and returns a wrapper bound to it.
func New(ctx context.Context, backend Backend, channel string) (*MQ, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, errors.New("mq channel is required")
	}
	if err := backend.Declare(ctx, channel); err != nil {
		return nil, fmt.Errorf("declare %s: %w", channel, err)
	}
	return &MQ{backend: backend, channel: channel}, nil
}

// Channel returns the channel events are published to.
func (m *MQ) Channel() string {
	return m.channel
}

// PublishEvent encodes event as JSON and publishes it with its type and
// owner as routing attributes.
func (m *MQ) PublishEvent(ctx context.Context, event types.Event) (string, error) {
	if !event.Type.Known() {
		return "", fmt.Errorf("unknown event type %q", event.Type)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	return m.backend.Publish(ctx, m.channel, Message{
		Type: event.Type,
		Data: data,
		Attributes: map[string]string{
			AttrEventType: string(event.Type),
			AttrUserID:    event.UserID,
		},
	})
}

// SubscribeEvents consumes the channel until ctx is done. Deliveries that
// cannot be decoded into a known event are acknowledged and passed to
// onInvalid, which may be nil.
func (m *MQ) SubscribeEvents(ctx context.Context, handler EventHandler, onInvalid func(Message, error)) error {
	return m.backend.Subscribe(ctx, m.channel, func(ctx context.Context, msg Message) error {
		event, err := decodeEvent(msg)
		if err != nil {
			if onInvalid != nil {
				onInvalid(msg, err)
			}
			return nil
		}
		return handler(ctx, msg.ID, event)
	})
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}

func decodeEvent(msg Message) (types.Event, error) {
	var event types.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if event.Type == "" {
		event.Type = msg.Type
	}
	if msg.Type != "" && msg.Type != event.Type {
		return types.Event{}, fmt.Errorf("event type %q does not match routing type %q", event.Type, msg.Type)
	}
	if !event.Type.Known() {
		return types.Event{}, fmt.Errorf("unknown event type %q", event.Type)
	}
	return event, nil
}

// messageType reads the routing type from attrs when the broker has no
// native field for it.
func messageType(native string, attrs map[string]string) types.EventType {
	if native != "" {
		return types.EventType(native)
	}
	return types.EventType(attrs[AttrEventType])
}

// Open builds the broker selected by cfg.Backend and declares cfg.Channel.
// It returns nil without an error when events are disabled.
func Open(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendNone:
		return nil, nil
	case BackendRabbitMQ:
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
	case BackendPubSub:
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.Backend)
	}

	broker, err := New(ctx, backend, cfg.Channel)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return broker, nil
}
