package transport

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ValidBearer reports whether an Authorization header carries the expected token.
func ValidBearer(header, token string) bool {
	if token == "" {
		return false
	}
	got, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	got = strings.TrimSpace(got)
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

// AuthMiddleware enforces a static bearer token.
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")) == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
				return
			}
			if !ValidBearer(auth, token) {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
