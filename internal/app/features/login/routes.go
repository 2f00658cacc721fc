// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the sign-in endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Password)
	r.Post("/register", h.Register)
	r.Post("/trust", h.Trust)
	return r
}
