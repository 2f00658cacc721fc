// internal/app/features/sessionstate/routes.go
package sessionstate

import (
	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/system/auth"
)

// Routes returns a subrouter for the session state endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.Snapshot)
	r.Get("/stream", h.Stream)
	r.Post("/active-org", h.SetActiveOrg)
	return r
}
