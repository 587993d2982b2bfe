package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/macrotrack/apiserver/types"
)

// MacroRequest is the body accepted by the write routes. Absent or null macro
// fields count as zero.
type MacroRequest struct {
	Date     *string  `json:"date"`
	MealType *string  `json:"meal_type"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

func (req MacroRequest) date() string {
	if req.Date == nil {
		return ""
	}
	return *req.Date
}

func (req MacroRequest) mealType() string {
	if req.MealType == nil {
		return ""
	}
	return *req.MealType
}

func (req MacroRequest) macros() types.Macros {
	return types.Macros{
		Calories: valueOrZero(req.Calories),
		Protein:  valueOrZero(req.Protein),
		Carbs:    valueOrZero(req.Carbs),
		Fat:      valueOrZero(req.Fat),
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// badRequest carries a client-facing 400 message.
type badRequest struct {
	message string
}

func (e badRequest) Error() string { return e.message }

func decodeMacroRequest(w http.ResponseWriter, r *http.Request) (MacroRequest, error) {
	var req MacroRequest

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyLen))
	if err != nil {
		return req, badRequest{message: msgInvalidJSON}
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return req, nil
	}

	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return req, badRequest{message: fieldTypeMessage(typeErr.Field)}
		}
		return req, badRequest{message: msgInvalidJSON}
	}
	return req, nil
}

func fieldTypeMessage(field string) string {
	switch field {
	case "date", "meal_type":
		return fmt.Sprintf("Field '%s' must be a string.", field)
	default:
		return fmt.Sprintf("Field '%s' must be a number.", field)
	}
}
