package mcp

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware guards the MCP listener with a shared API key. Clients may
// send the key as a Bearer token or as the raw Authorization header value.
// An empty apiKey passes every request through, matching a sidecar that
// runs without authentication.
func AuthMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			http.Error(w, "invalid credentials", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
