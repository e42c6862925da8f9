package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, resp map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// SharedSecretMiddleware guards machine-to-machine endpoints such as the
// message webhook. The caller sends "Authorization: Bearer <secret>". An
// empty secret disables the check.
func SharedSecretMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"message": "Unauthorized",
				})
				return
			}
			got := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"message": "Invalid token",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
