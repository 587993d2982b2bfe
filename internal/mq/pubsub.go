package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/macrotrack/apiserver/config"
	"google.golang.org/api/option"
)

// PubSubClient publishes events to a Cloud Pub/Sub topic. Events are ordered
// per user through the ordering key.
type PubSubClient struct {
	client *pubsub.Client
	suffix string

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubClient constructs a Pub/Sub client from config.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	return &PubSubClient{
		client: client,
		suffix: cfg.SubscriptionSuffix,
		topics: make(map[string]*pubsub.Topic),
	}, nil
}

// Declare creates the topic if needed and caches its handle.
func (p *PubSubClient) Declare(ctx context.Context, channel string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.topics[channel]; ok {
		return nil
	}

	topic := p.client.Topic(channel)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if topic, err = p.client.CreateTopic(ctx, channel); err != nil {
			return err
		}
	}
	topic.EnableMessageOrdering = true
	p.topics[channel] = topic
	return nil
}

// Publish sends msg keyed by its owner. A failed publish pauses the key in
// the SDK, so it is resumed before returning the error.
func (p *PubSubClient) Publish(ctx context.Context, channel string, msg Message) (string, error) {
	topic, err := p.topic(channel)
	if err != nil {
		return "", err
	}

	key := msg.Attributes[AttrUserID]
	result := topic.Publish(ctx, &pubsub.Message{
		Data:        msg.Data,
		Attributes:  msg.Attributes,
		OrderingKey: key,
	})
	id, err := result.Get(ctx)
	if err != nil {
		if key != "" {
			topic.ResumePublish(key)
		}
		return "", err
	}
	return id, nil
}

// Subscribe receives from the channel's ordered subscription until ctx is
// done.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	topic, err := p.topic(channel)
	if err != nil {
		return err
	}

	name := subscriptionName(channel, p.suffix)
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		sub, err = p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
			Topic:                 topic,
			EnableMessageOrdering: true,
		})
		if err != nil {
			return err
		}
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		message := Message{
			ID:         msg.ID,
			Type:       messageType("", msg.Attributes),
			Data:       msg.Data,
			Attributes: msg.Attributes,
		}
		if err := handler(ctx, message); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close flushes pending publishes and closes the client.
func (p *PubSubClient) Close() error {
	p.mu.Lock()
	for _, topic := range p.topics {
		topic.Stop()
	}
	p.mu.Unlock()
	return p.client.Close()
}

func (p *PubSubClient) topic(channel string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	topic, ok := p.topics[channel]
	if !ok {
		return nil, fmt.Errorf("pubsub topic %q is not declared", channel)
	}
	return topic, nil
}

func subscriptionName(channel, suffix string) string {
	if suffix == "" {
		return channel + "-sub"
	}
	return channel + suffix
}
