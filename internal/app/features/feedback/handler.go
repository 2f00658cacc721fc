// internal/app/features/feedback/handler.go

// Package feedback lets members send free-text messages to their
// organization's admins. Members write, admins read and delete.
package feedback

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/features/shared"
	feedbackstore "github.com/moimhub/moimhub/internal/app/store/feedback"
	userstore "github.com/moimhub/moimhub/internal/app/store/users"
	"github.com/moimhub/moimhub/internal/app/system/auth"
	"github.com/moimhub/moimhub/internal/app/system/authz"
	"github.com/moimhub/moimhub/internal/app/system/normalize"
	"github.com/moimhub/moimhub/internal/app/system/timeouts"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Feedback.
type Handler struct {
	Feedback *feedbackstore.Store
	Gate     *authz.Gate
	Log      *zap.Logger
}

// NewHandler constructs a Feedback handler bound to a DB.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Feedback: feedbackstore.New(db),
		Gate:     authz.NewGate(userstore.New(db)),
		Log:      logger,
	}
}

type createRequest struct {
	Body string `json:"body"`
}

// HandleCreate handles POST /organizations/{orgID}/feedback.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Gate.Member(ctx, su.ID, orgID)
	if err != nil {
		shared.MembershipError(w, err)
		return
	}

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Body = normalize.Name(req.Body)
	if req.Body == "" {
		shared.Error(w, http.StatusBadRequest, "body is required")
		return
	}

	userName := su.Name
	if prof, ok := u.Profiles[orgID]; ok && prof.Name != "" {
		userName = prof.Name
	}

	fb, err := h.Feedback.Create(ctx, models.Feedback{
		OrganizationID: orgID,
		UserID:         su.ID,
		UserName:       userName,
		Body:           req.Body,
	})
	if err != nil {
		h.Log.Error("feedback insert failed", zap.String("org_id", orgID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusCreated, fb)
}

// ServeList handles GET /organizations/{orgID}/feedback (org admin only).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.OrgAdmin(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	list, err := h.Feedback.ListByOrg(ctx, orgID)
	if err != nil {
		h.Log.Error("feedback list failed", zap.String("org_id", orgID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.Feedback{}
	}
	shared.JSON(w, http.StatusOK, list)
}

// HandleDelete handles DELETE /organizations/{orgID}/feedback/{feedbackID}
// (org admin only).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.OrgAdmin(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "feedbackID"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "feedback not found")
		return
	}
	n, err := h.Feedback.Delete(ctx, id)
	if err != nil {
		h.Log.Error("feedback delete failed", zap.String("feedback_id", id.Hex()), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if n == 0 {
		shared.Error(w, http.StatusNotFound, "feedback not found")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
