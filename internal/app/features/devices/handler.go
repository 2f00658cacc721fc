// internal/app/features/devices/handler.go

// Package devices records per-user push delivery endpoints. Tokens are kept
// as a set on the user document; registering an existing token is a no-op.
package devices

import (
	"context"
	"net/http"

	"github.com/moimhub/moimhub/internal/app/features/shared"
	userstore "github.com/moimhub/moimhub/internal/app/store/users"
	"github.com/moimhub/moimhub/internal/app/system/auth"
	"github.com/moimhub/moimhub/internal/app/system/normalize"
	"github.com/moimhub/moimhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Devices.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

// NewHandler constructs a Devices handler bound to a DB.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Users: userstore.New(db), Log: logger}
}

type tokenRequest struct {
	Token string `json:"token"`
}

// HandleRegisterToken handles POST /devices/fcm-token.
func (h *Handler) HandleRegisterToken(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	var req tokenRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Token = normalize.Name(req.Token)
	if req.Token == "" {
		shared.Error(w, http.StatusBadRequest, "token is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.AddFCMToken(ctx, su.ID, req.Token); err != nil {
		h.Log.Error("fcm token register failed", zap.String("user_id", su.ID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "registered"})
}
