package delivery

import (
	"net/http"
	"strings"

	"github.com/Vovarama1992/cableposter/internal/ports"
)

// AuthMiddleware accepts the operator token in X-Auth, as a Bearer token,
// or in the token query parameter for websocket upgrades.
func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Auth")
			if token == "" {
				token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			if ok, _ := auth.ValidateToken(r.Context(), token); !ok {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
