package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/linkfinder/internal/linkservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *linkservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/query", h.Query)
	r.Post("/resolve", h.Resolve)
	r.Post("/suggest", h.Suggest)
	r.Post("/link", h.Link)

	// Write a link into a document.
	r.Post("/documents/*", h.ApplyLink)

	r.Post("/rebuild", h.Rebuild)
	r.Get("/stats", h.Stats)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
