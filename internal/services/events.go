package services

import (
	"context"
	"time"

	"github.com/macrotrack/apiserver/types"
	"github.com/sirupsen/logrus"
)

// Publisher delivers macro events to the configured broker channel.
type Publisher interface {
	PublishEvent(ctx context.Context, event types.Event) (string, error)
}

// Notifier publishes domain events after successful writes. A nil Notifier
// or one without a publisher drops events silently.
type Notifier struct {
	publisher Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewNotifier(publisher Publisher, log logrus.FieldLogger) *Notifier {
	return &Notifier{
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Notify publishes event. Failures are logged and never returned: the write
// the event describes has already been committed.
func (n *Notifier) Notify(ctx context.Context, event types.Event) {
	if n == nil || n.publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = n.now().UTC()
	}

	id, err := n.publisher.PublishEvent(ctx, event)
	if err != nil {
		n.log.WithError(err).WithField("event_type", event.Type).Warn("failed to publish event")
		return
	}
	n.log.WithField("event_type", event.Type).WithField("message_id", id).Debug("event published")
}
