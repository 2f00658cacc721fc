// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/system/auth"
)

// Subrouters are the organization-scoped feature routers mounted under
// /{orgID}. They read {orgID} from the parent route.
type Subrouters struct {
	Notices  chi.Router
	Surveys  chi.Router
	Groups   chi.Router
	Feedback chi.Router
}

// Routes mounts all Organization routes under the base path
// (typically "/organizations" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager, sub Subrouters) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeMine)
	r.Post("/", h.HandleCreate)
	r.Post("/join", h.HandleJoin)

	r.Get("/{orgID}", h.ServeDetail)
	r.Post("/{orgID}/leave", h.HandleLeave)
	r.Put("/{orgID}/profile", h.HandleUpdateProfile)
	r.Post("/{orgID}/status", h.HandleSetStatus)

	r.Mount("/{orgID}/notices", sub.Notices)
	r.Mount("/{orgID}/surveys", sub.Surveys)
	r.Mount("/{orgID}/groups", sub.Groups)
	r.Mount("/{orgID}/feedback", sub.Feedback)

	return r
}
