package types

import "time"

// DefaultMealType is stored when a meal is logged without a type.
const DefaultMealType = "unspecified"

// Meal represents a single logged meal entry. Meals are immutable once
// written and every entry receives its own identifier, so concurrent
// inserts for the same day never overwrite each other.
type Meal struct {
	// MealID is the globally unique identifier generated at insert time.
	MealID string `json:"meal_id" db:"meal_id" dynamodbav:"meal_id"`

	// UserID is the digest identifying the caller.
	UserID string `json:"-" db:"user_id" dynamodbav:"user_id"`

	// Date is the day the meal is attributed to.
	Date string `json:"date" db:"date" dynamodbav:"date"`

	// MealType is a free-form label such as "breakfast" or "snack".
	MealType string `json:"meal_type" db:"meal_type" dynamodbav:"meal_type"`

	Macros

	// LoggedAt is the UTC time at which the entry was stored.
	LoggedAt time.Time `json:"logged_at" db:"logged_at" dynamodbav:"logged_at"`
}
