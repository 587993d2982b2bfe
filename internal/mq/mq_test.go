package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/macrotrack/apiserver/config"
	"github.com/macrotrack/apiserver/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

type recordingBackend struct {
	declared   []string
	declareErr error
	channel    string
	published  []Message
	deliveries []Message
	closed     bool
}

func (b *recordingBackend) Declare(_ context.Context, channel string) error {
	if b.declareErr != nil {
		return b.declareErr
	}
	b.declared = append(b.declared, channel)
	return nil
}

func (b *recordingBackend) Publish(_ context.Context, channel string, msg Message) (string, error) {
	b.channel = channel
	b.published = append(b.published, msg)
	return "id-1", nil
}

func (b *recordingBackend) Subscribe(ctx context.Context, _ string, handler Handler) error {
	for _, msg := range b.deliveries {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *recordingBackend) Close() error {
	b.closed = true
	return nil
}

func TestNewDeclaresChannelOnce(t *testing.T) {
	backend := &recordingBackend{}
	broker, err := New(context.Background(), backend, " macro-events ")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if broker.Channel() != "macro-events" {
		t.Fatalf("unexpected channel %q", broker.Channel())
	}

	event := types.Event{Type: types.EventGoalsSet, UserID: "u1", Date: "2024-01-01"}
	for i := 0; i < 3; i++ {
		if _, err := broker.PublishEvent(context.Background(), event); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if len(backend.declared) != 1 || backend.declared[0] != "macro-events" {
		t.Fatalf("expected one declaration, got %v", backend.declared)
	}
}

func TestNewRejectsBlankChannel(t *testing.T) {
	if _, err := New(context.Background(), &recordingBackend{}, "  "); err == nil {
		t.Fatalf("expected error for blank channel")
	}
}

func TestNewSurfacesDeclareFailure(t *testing.T) {
	backend := &recordingBackend{declareErr: errors.New("access refused")}
	if _, err := New(context.Background(), backend, "macro-events"); err == nil {
		t.Fatalf("expected declare error")
	}
}

func TestPublishEventSetsRoutingAttributes(t *testing.T) {
	backend := &recordingBackend{}
	broker, err := New(context.Background(), backend, "macro-events")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	event := types.Event{
		Type:   types.EventMealLogged,
		UserID: "u1",
		Date:   "2024-01-01",
		MealID: "m1",
		Macros: types.Macros{Calories: 500},
	}
	id, err := broker.PublishEvent(context.Background(), event)
	if err != nil || id != "id-1" {
		t.Fatalf("publish: %q %v", id, err)
	}
	if backend.channel != "macro-events" {
		t.Fatalf("unexpected channel %q", backend.channel)
	}

	msg := backend.published[0]
	if msg.Type != types.EventMealLogged {
		t.Fatalf("unexpected type %q", msg.Type)
	}
	if msg.Attributes[AttrEventType] != "meal.logged" || msg.Attributes[AttrUserID] != "u1" {
		t.Fatalf("unexpected attributes %v", msg.Attributes)
	}

	var decoded types.Event
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.MealID != "m1" || decoded.Macros.Calories != 500 {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestPublishEventRejectsUnknownType(t *testing.T) {
	backend := &recordingBackend{}
	broker, err := New(context.Background(), backend, "macro-events")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := broker.PublishEvent(context.Background(), types.Event{Type: "goals.deleted"}); err == nil {
		t.Fatalf("expected error for unknown event type")
	}
	if len(backend.published) != 0 {
		t.Fatalf("nothing should be published")
	}
}

func TestSubscribeEventsDecodesAndSkipsInvalid(t *testing.T) {
	good, _ := json.Marshal(types.Event{Type: types.EventGoalsSet, UserID: "u1", Date: "2024-01-01"})
	untyped, _ := json.Marshal(types.Event{UserID: "u2"})
	backend := &recordingBackend{deliveries: []Message{
		{ID: "1", Type: types.EventGoalsSet, Data: good},
		{ID: "2", Data: []byte("not json")},
		{ID: "3", Type: types.EventMealLogged, Data: good},
		{ID: "4", Type: types.EventMealLogged, Data: untyped},
	}}
	broker, err := New(context.Background(), backend, "macro-events")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var seen []string
	var invalid []string
	err = broker.SubscribeEvents(context.Background(),
		func(_ context.Context, id string, event types.Event) error {
			seen = append(seen, id+":"+string(event.Type))
			return nil
		},
		func(msg Message, _ error) {
			invalid = append(invalid, msg.ID)
		},
	)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(seen) != 2 || seen[0] != "1:goals.set" || seen[1] != "4:meal.logged" {
		t.Fatalf("unexpected events %v", seen)
	}
	if len(invalid) != 2 || invalid[0] != "2" || invalid[1] != "3" {
		t.Fatalf("unexpected invalid deliveries %v", invalid)
	}
}

func TestSubscribeEventsPropagatesHandlerError(t *testing.T) {
	good, _ := json.Marshal(types.Event{Type: types.EventGoalsSet, UserID: "u1"})
	backend := &recordingBackend{deliveries: []Message{{ID: "1", Data: good}}}
	broker, err := New(context.Background(), backend, "macro-events")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	want := errors.New("retry")
	err = broker.SubscribeEvents(context.Background(), func(context.Context, string, types.Event) error {
		return want
	}, nil)
	if !errors.Is(err, want) {
		t.Fatalf("expected handler error, got %v", err)
	}

	if err := broker.Close(); err != nil || !backend.closed {
		t.Fatalf("expected backend to be closed")
	}
}

func TestOpenDisabled(t *testing.T) {
	queue, err := Open(context.Background(), config.MQConfig{Backend: "none"})
	if err != nil || queue != nil {
		t.Fatalf("expected nil broker, got %v %v", queue, err)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), config.MQConfig{Backend: "kafka"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestOpenRabbitMQRequiresURL(t *testing.T) {
	if _, err := Open(context.Background(), config.MQConfig{Backend: BackendRabbitMQ, Channel: "macro-events"}); err == nil {
		t.Fatalf("expected error without url")
	}
}

func TestHeadersToAttributes(t *testing.T) {
	attrs := headersToAttributes(amqp.Table{AttrEventType: "goals.set", "raw": []byte("x"), "n": int32(3)})
	if attrs[AttrEventType] != "goals.set" || attrs["raw"] != "x" || attrs["n"] != "3" {
		t.Fatalf("unexpected attributes: %v", attrs)
	}
	if headersToAttributes(nil) != nil {
		t.Fatalf("expected nil for empty headers")
	}
}

func TestMessageTypePrefersNativeField(t *testing.T) {
	attrs := map[string]string{AttrEventType: "goals.set"}
	if got := messageType("meal.logged", attrs); got != types.EventMealLogged {
		t.Fatalf("unexpected type %q", got)
	}
	if got := messageType("", attrs); got != types.EventGoalsSet {
		t.Fatalf("unexpected type %q", got)
	}
	if got := messageType("", nil); got != "" {
		t.Fatalf("expected empty type, got %q", got)
	}
}

func TestSubscriptionName(t *testing.T) {
	if got := subscriptionName("macro-events", ""); got != "macro-events-sub" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := subscriptionName("macro-events", "-tail"); got != "macro-events-tail" {
		t.Fatalf("unexpected name %q", got)
	}
}
