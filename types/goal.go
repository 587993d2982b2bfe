package types

// Goal represents a user's nutrition targets for a single day.
// There is at most one goal per (user, date); a new submission replaces
// the previous record entirely.
type Goal struct {
	// UserID is the digest identifying the caller. It is a partition key
	// component and is never exposed in API responses.
	UserID string `json:"-" db:"user_id" dynamodbav:"user_id"`

	// Date is the caller-supplied day identifier. Any non-empty string is
	// accepted; "YYYY-MM-DD" is the conventional format.
	Date string `json:"date" db:"date" dynamodbav:"date"`

	Macros
}
