package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/agentdeck/agentdeck/internal/domain/apikey"
	"github.com/agentdeck/agentdeck/internal/service"
)

type apiKeyCtxKey struct{}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health":                 true,
	"/health/ready":           true,
	"/.well-known/agent.json": true,
}

// Auth returns middleware that validates API key credentials. When
// authEnabled is false, every request runs under an implicit admin key.
func Auth(authSvc *service.AuthService, authEnabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authEnabled {
				anon := &apikey.Key{
					ID:     "00000000-0000-0000-0000-000000000000",
					Name:   "anonymous",
					Scopes: []string{apikey.ScopeAdmin},
				}
				ctx := context.WithValue(r.Context(), apiKeyCtxKey{}, anon)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			raw := credential(r)
			if raw == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			key, err := authSvc.ValidateKey(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyCtxKey{}, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// credential extracts the presented API key: the X-API-Key header or a
// bearer token. Browsers cannot set headers on WebSocket upgrades, so
// /ws also accepts ?token=.
func credential(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token := strings.TrimPrefix(h, "Bearer "); token != h {
			return token
		}
		return ""
	}
	if r.URL.Path == "/ws" {
		return r.URL.Query().Get("token")
	}
	return ""
}

// KeyFromContext returns the API key that authenticated the request, or
// nil when auth never ran for it.
func KeyFromContext(ctx context.Context) *apikey.Key {
	key, _ := ctx.Value(apiKeyCtxKey{}).(*apikey.Key)
	return key
}
