package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ayush/library-api/internal/auth"
	"github.com/ayush/library-api/internal/httputil"
)

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// RequireAuth is middleware that validates the bearer token and injects the
// member identity into the request context.
func RequireAuth(authn Authenticator, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Message(w, http.StatusUnauthorized, "Missing Authorization Header")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				httputil.Message(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			id, err := authn.Authenticate(r.Context(), strings.TrimSpace(token))
			if errors.Is(err, auth.ErrUnauthorized) {
				logger.WithError(err).WithField("path", r.URL.Path).Debug("token rejected")
				httputil.Message(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if err != nil {
				logger.WithError(err).Error("authenticate request")
				httputil.Message(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
