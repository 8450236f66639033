package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors reflects any origin and allows credentials so the cookie pair
// reaches the API from a separately hosted client.
func Cors() Middleware {
	options := cors.Options{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
	return cors.New(options).Handler
}
