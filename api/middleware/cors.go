package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the configured storefront origins. Guests send their session token
// in a custom header, so it must be allowed and exposed.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", SessionTokenHeader, IdempotencyHeader, "X-Request-Id"},
		ExposedHeaders:   []string{SessionTokenHeader, "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
