// Package site serves the embedded survey form.
package site

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register attaches the embedded survey pages to r.
// Routes:
//
//	GET /              -> survey form (index.html)
//	GET /success.html  -> confirmation page
//	GET /*             -> any other embedded asset
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	h := NewRootHandler()
	r.Get("/", h.HandleRoot)
	r.Get("/*", h.HandleRoot)
}

// RootHandler serves the embedded survey pages.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// HandleRoot serves the embedded file matching the request path.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.files.ServeHTTP(w, r)
}
