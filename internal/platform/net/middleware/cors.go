package middleware

import "github.com/go-chi/cors"

// CORSOptions narrows go-chi/cors to what the API varies
type CORSOptions struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS lets browser front ends call the pipeline; any origin unless restricted
func CORS(o CORSOptions) Middleware {
	origins := o.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         o.MaxAge,
	})
}
