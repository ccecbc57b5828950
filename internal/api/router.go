package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskdown/taskdown/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Raw document CRUD.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.UpdateDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	// Parsed outline + mutating operations.
	r.Get("/outline/*", h.GetOutline)
	r.Post("/outline/*", h.ApplyOp)

	// Search over tasks.
	r.Get("/search", h.Search)

	// Reference graph.
	r.Get("/graph", h.Graph)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
