// internal/app/features/feedback/routes.go
package feedback

import "github.com/go-chi/chi/v5"

// Routes returns the feedback subrouter, mounted under an organization path
// so {orgID} resolves from the parent route.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleCreate)
	r.Get("/", h.ServeList)
	r.Delete("/{feedbackID}", h.HandleDelete)
	return r
}
