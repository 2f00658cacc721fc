// internal/app/features/bookmarks/routes.go
package bookmarks

import (
	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/system/auth"
)

// Routes returns the bookmarks subrouter.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleAdd)
	r.Delete("/{bookmarkID}", h.HandleRemove)
	r.Post("/{bookmarkID}/move", h.HandleMove)
	return r
}
