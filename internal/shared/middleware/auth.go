package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bankdash/internal/shared/apperror"
)

type ContextKey string

const UserIDKey ContextKey = "user_id"

// Authenticator resolves the calling user from a request.
type Authenticator interface {
	Authenticate(r *http.Request) (int64, error)
}

// HeaderAuthenticator trusts a user id injected by an upstream gateway.
type HeaderAuthenticator struct {
	Header string
}

func (a HeaderAuthenticator) Authenticate(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(a.Header))
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s header", apperror.ErrUnauthorized, a.Header)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed %s header", apperror.ErrUnauthorized, a.Header)
	}
	return id, nil
}

// Auth rejects requests the authenticator cannot resolve and stores the
// user id in the request context.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authn.Authenticate(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"code":  apperror.Code(apperror.ErrUnauthorized),
					"error": err.Error(),
				})
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id stored by Auth.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}
