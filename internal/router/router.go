// Package router sets up all HTTP routes and middleware chains. The JSON
// API lives under /api; rendered site previews and the demo chat UI are
// plain GET surfaces a browser can load directly.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitesmith/internal/handlers"
	"sitesmith/internal/middleware"
	"sitesmith/web"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. tokenHash may be empty, which leaves the
// API open (development default).
func New(api *handlers.API, limiter *middleware.RateLimiter, tokenHash string) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check — no auth, no rate limit.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)

		// State-changing endpoints and raw state reads require the token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(tokenHash))

			r.Post("/chat", api.Chat)
			r.Post("/images", api.UploadImages)
			r.Post("/generate", api.Generate)
			r.Post("/reset", api.Reset)

			r.Get("/site/{userID}", api.SiteState)
			r.Get("/site/{userID}/export", api.Export)
			r.Post("/site/{userID}/publish", api.PublishSite)
		})

		// Previews load in browser iframes, which cannot attach the
		// bearer token. They expose nothing beyond the rendered site.
		r.Get("/site/{userID}/preview", api.Preview)
		r.Get("/site/{userID}/images/{name}", api.UserImage)
	})

	// Demo chat UI and its embedded assets.
	r.Handle("/static/*", http.FileServer(http.FS(web.StaticFS)))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, web.StaticFS, "static/index.html")
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
