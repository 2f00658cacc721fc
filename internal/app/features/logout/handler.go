// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/moimhub/moimhub/internal/app/features/shared"
	"github.com/moimhub/moimhub/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler clears the cookie session. Live session resolvers notice via
// their SSE connections closing; no server-side state is touched here.
type Handler struct {
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

// NewHandler constructs a logout Handler.
func NewHandler(sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Log: logger}
}

// Serve handles POST /logout.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Log.Info("signed out", zap.String("user_id", u.ID))
	}
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Error("session clear failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}
