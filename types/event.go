package types

import "time"

// EventType identifies the kind of domain event.
type EventType string

// Supported event types.
const (
	// EventGoalsSet is emitted after a goal record is written.
	EventGoalsSet EventType = "goals.set"

	// EventMealLogged is emitted after a meal entry is inserted.
	EventMealLogged EventType = "meal.logged"
)

// Event is the broker payload describing a completed write.
type Event struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"`
	MealID     string    `json:"meal_id,omitempty"`
	Macros     Macros    `json:"macros"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Known reports whether t is one of the event types this service emits.
func (t EventType) Known() bool {
	return t == EventGoalsSet || t == EventMealLogged
}
