package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/macrotrack/apiserver/internal/services"
	"github.com/sirupsen/logrus"
)

// MacroHandler provides the goal, meal and summary endpoints.
type MacroHandler struct {
	goalService    *services.GoalService
	mealService    *services.MealService
	summaryService *services.SummaryService
	log            logrus.FieldLogger
}

func NewMacroHandler(
	goalService *services.GoalService,
	mealService *services.MealService,
	summaryService *services.SummaryService,
	log logrus.FieldLogger,
) *MacroHandler {
	return &MacroHandler{
		goalService:    goalService,
		mealService:    mealService,
		summaryService: summaryService,
		log:            log,
	}
}

// MacroRouter registers the tracking routes on r. authMiddleware is installed
// ahead of routing so unauthenticated requests are rejected on every path.
func MacroRouter(r chi.Router, handler *MacroHandler, authMiddleware func(http.Handler) http.Handler) {
	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.NotFound(NotFound)
	r.MethodNotAllowed(NotFound)

	r.Post("/set-goals", handler.SetGoals)
	r.Post("/log-meal", handler.LogMeal)
	r.Get("/track-macros", handler.TrackMacros)
}

func (h *MacroHandler) SetGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	req, err := decodeMacroRequest(w, r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	goal, err := h.goalService.Set(r.Context(), userID, req.date(), req.macros())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, fmt.Sprintf("Goals for %s set successfully.", goal.Date))
}

func (h *MacroHandler) LogMeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	req, err := decodeMacroRequest(w, r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	meal, err := h.mealService.Log(r.Context(), userID, req.date(), req.mealType(), req.macros())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.log.WithField("meal_id", meal.MealID).Debug("meal logged")
	writeMessage(w, http.StatusOK, fmt.Sprintf("Meal logged for %s.", meal.Date))
}

func (h *MacroHandler) TrackMacros(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	summary, err := h.summaryService.Track(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *MacroHandler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var invalid services.ValidationError
	var malformed badRequest
	switch {
	case errors.As(err, &invalid):
		writeMessage(w, http.StatusBadRequest, invalid.Message)
	case errors.As(err, &malformed):
		writeMessage(w, http.StatusBadRequest, malformed.message)
	default:
		writeInternalError(w, h.log, r, err)
	}
}
