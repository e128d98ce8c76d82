// Package router sets up the HTTP routes and middleware chain for the
// catalog API. All responses, including routing misses and CORS
// preflights, follow the JSON envelope contract.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"vidcatalog/internal/handlers"
	"vidcatalog/internal/middleware"
)

// New creates and returns the configured Chi router. writeLimiter may be
// nil to disable rate limiting on the mutating routes (tests do this).
func New(videos *handlers.Videos, writeLimiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Any origin may read the catalog; the browser admin UI is served
	// from a different host than the API. OPTIONS preflights are
	// answered here with 200 and no body.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key", "X-Amz-Security-Token"},
		MaxAge:         300,
	}))

	// Health check.
	r.Get("/health", healthHandler)

	r.Route("/videos", func(r chi.Router) {
		// Reads.
		r.Get("/", videos.List)
		r.Get("/export", videos.Export)
		r.Get("/category/{category}", videos.ByCategory)
		r.Get("/{id}", videos.Get)

		// Writes.
		r.Group(func(r chi.Router) {
			if writeLimiter != nil {
				r.Use(writeLimiter.Middleware)
			}
			r.Post("/", videos.Create)
			r.Put("/{id}", videos.Update)
			r.Delete("/{id}", videos.Delete)
		})
	})

	// A routing miss is not a record miss: same status, distinct error.
	r.NotFound(handlers.RouteNotFound)
	r.MethodNotAllowed(handlers.RouteNotFound)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
