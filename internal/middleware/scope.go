package middleware

import (
	"net/http"
)

// RequireScope returns middleware that checks the API key on the request
// grants the given scope. Requests on public paths carry no key and pass
// through.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := KeyFromContext(r.Context())
			if key == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !key.HasScope(scope) {
				http.Error(w, `{"error":"insufficient scope"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
