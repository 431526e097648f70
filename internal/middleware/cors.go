package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors allows credentialed requests from origins, or from anywhere if
// origins is empty.
func Cors(origins []string) Middleware {
	options := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		options.AllowOriginFunc = func(origin string) bool {
			return true
		}
	}
	return cors.New(options).Handler
}
