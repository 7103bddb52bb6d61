package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the configured frontend origin with credentials so the
// httpOnly session cookie survives cross-origin requests.
func CORS(frontendOrigin string) func(http.Handler) http.Handler {
	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{frontendOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: true,
	})

	return handler.Handler
}
