package types

// DailySummary is the response payload of the daily tracking endpoint.
type DailySummary struct {
	// Date echoes the requested day.
	Date string `json:"date"`

	// Goals holds the goal record for the day, or an empty object when no
	// goals were set.
	Goals any `json:"goals"`

	// Totals is the field-wise sum of all meals logged for the day.
	Totals Macros `json:"totals"`

	// MealsLogged is the number of meals that contributed to Totals.
	MealsLogged int `json:"meals_logged"`
}

// DailyTotals is the result of aggregating a day's meals.
type DailyTotals struct {
	Totals      Macros
	MealsLogged int
}
