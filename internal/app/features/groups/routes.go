// internal/app/features/groups/routes.go
package groups

import "github.com/go-chi/chi/v5"

// Routes returns the groups subrouter, mounted under an organization path
// so {orgID} resolves from the parent route.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Post("/{groupID}/join", h.HandleJoin)
	r.Post("/{groupID}/leave", h.HandleLeave)
	r.Delete("/{groupID}", h.HandleDelete)
	return r
}
