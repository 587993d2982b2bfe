package handlers

import (
	"errors"
	"net/http"

	"github.com/macrotrack/apiserver/internal/services"
	"github.com/sirupsen/logrus"
)

// RequireIdentity authenticates every request with authenticator and injects
// the resolved identity into the request context.
func RequireIdentity(authenticator services.Authenticator, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticator.Authenticate(r.Context(), r.Header)
			switch {
			case errors.Is(err, services.ErrMissingCredential):
				writeMessage(w, http.StatusUnauthorized, msgMissingKey)
				return
			case errors.Is(err, services.ErrUnauthorized):
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			case err != nil:
				writeInternalError(w, log, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), userID)))
		})
	}
}
