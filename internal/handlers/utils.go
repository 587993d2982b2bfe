package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

const (
	msgNotFound       = "Not Found"
	msgInternalError  = "Internal server error."
	msgInvalidJSON    = "Invalid JSON body."
	msgMissingKey     = "Missing security key."
	msgUnauthorized   = "Unauthorized."
	maxRequestBodyLen = 1 << 20
)

func withIdentity(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextIdentityKey, userID)
}

func identityFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextIdentityKey).(string)
	return userID, ok && userID != ""
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeMessage answers with a bare JSON string body.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, message)
}

func writeInternalError(w http.ResponseWriter, log logrus.FieldLogger, r *http.Request, err error) {
	log.WithError(err).
		WithField("method", r.Method).
		WithField("path", r.URL.Path).
		Error("request failed")
	writeMessage(w, http.StatusInternalServerError, msgInternalError)
}

// NotFound answers unmatched routes and methods.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, msgNotFound)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
