// internal/app/features/devices/routes.go
package devices

import (
	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/system/auth"
)

// Routes returns the devices subrouter.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Post("/fcm-token", h.HandleRegisterToken)
	return r
}
