// internal/app/features/notices/routes.go
package notices

import "github.com/go-chi/chi/v5"

// Routes returns the notices subrouter, mounted under an organization path
// so {orgID} resolves from the parent route.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{noticeID}", h.ServeDetail)
	r.Post("/{noticeID}/pin", h.HandleSetPinned)
	r.Delete("/{noticeID}", h.HandleDelete)
	return r
}
