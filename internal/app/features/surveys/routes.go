// internal/app/features/surveys/routes.go
package surveys

import "github.com/go-chi/chi/v5"

// Routes returns the surveys subrouter, mounted under an organization path
// so {orgID} resolves from the parent route.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{surveyID}", h.ServeDetail)
	r.Post("/{surveyID}/responses", h.HandleSubmit)
	r.Get("/{surveyID}/responses", h.ServeResponses)
	return r
}
