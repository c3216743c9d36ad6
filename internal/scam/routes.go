package scam

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the chat endpoint. An empty authSecret disables
// bearer auth.
func RegisterRoutes(r chi.Router, h *Handler, authSecret string) {
	r.Group(func(r chi.Router) {
		if authSecret != "" {
			r.Use(requireBearer(authSecret))
		}
		r.Post("/chat", h.HandleChat)
	})
}

func requireBearer(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != secret {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
