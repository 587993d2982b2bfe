package types

// Macros holds the four tracked nutrition amounts. Values may be fractional.
type Macros struct {
	// Calories is the energy amount, in kcal.
	Calories float64 `json:"calories" db:"calories" dynamodbav:"calories"`

	// Protein is the protein amount, in grams.
	Protein float64 `json:"protein" db:"protein" dynamodbav:"protein"`

	// Carbs is the carbohydrate amount, in grams.
	Carbs float64 `json:"carbs" db:"carbs" dynamodbav:"carbs"`

	// Fat is the fat amount, in grams.
	Fat float64 `json:"fat" db:"fat" dynamodbav:"fat"`
}

// Add returns the field-wise sum of m and other.
func (m Macros) Add(other Macros) Macros {
	return Macros{
		Calories: m.Calories + other.Calories,
		Protein:  m.Protein + other.Protein,
		Carbs:    m.Carbs + other.Carbs,
		Fat:      m.Fat + other.Fat,
	}
}
