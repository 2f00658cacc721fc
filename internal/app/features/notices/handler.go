// internal/app/features/notices/handler.go

// Package notices serves organization announcements. Writes are gated to
// organization admins; body HTML is sanitized before it is stored.
package notices

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/moimhub/moimhub/internal/app/features/shared"
	noticestore "github.com/moimhub/moimhub/internal/app/store/notices"
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

const defaultListLimit = 50

// Handler is the feature-level entry point for Notices.
type Handler struct {
	Notices  *noticestore.Store
	Gate     *authz.Gate
	Log      *zap.Logger
	sanitize *bluemonday.Policy
}

// NewHandler constructs a Notices handler bound to a DB.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Notices:  noticestore.New(db),
		Gate:     authz.NewGate(userstore.New(db)),
		Log:      logger,
		sanitize: bluemonday.UGCPolicy(),
	}
}

// ServeList handles GET /organizations/{orgID}/notices.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.Member(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	notices, err := h.Notices.ListByOrg(ctx, orgID, defaultListLimit)
	if err != nil {
		h.Log.Error("notice list failed", zap.String("org_id", orgID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if notices == nil {
		notices = []models.Notice{}
	}
	shared.JSON(w, http.StatusOK, notices)
}

type createRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Pinned bool   `json:"pinned"`
}

// HandleCreate handles POST /organizations/{orgID}/notices (org admin only).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Gate.OrgAdmin(ctx, su.ID, orgID)
	if err != nil {
		shared.MembershipError(w, err)
		return
	}

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = normalize.Name(req.Title)
	if req.Title == "" {
		shared.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	authorName := su.Name
	if prof, ok := u.Profiles[orgID]; ok && prof.Name != "" {
		authorName = prof.Name
	}

	n, err := h.Notices.Create(ctx, models.Notice{
		OrganizationID: orgID,
		Title:          req.Title,
		Body:           h.sanitize.Sanitize(req.Body),
		Pinned:         req.Pinned,
		AuthorID:       su.ID,
		AuthorName:     authorName,
	})
	if err != nil {
		h.Log.Error("notice insert failed", zap.String("org_id", orgID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusCreated, n)
}

// ServeDetail handles GET /organizations/{orgID}/notices/{noticeID}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Gate.Member(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	n, ok := h.loadOrgNotice(ctx, w, r, orgID)
	if !ok {
		return
	}
	shared.JSON(w, http.StatusOK, n)
}

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

// HandleSetPinned handles POST /organizations/{orgID}/notices/{noticeID}/pin
// (org admin only).
func (h *Handler) HandleSetPinned(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.OrgAdmin(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	var req pinRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, ok := h.loadOrgNotice(ctx, w, r, orgID)
	if !ok {
		return
	}
	if err := h.Notices.SetPinned(ctx, n.ID, req.Pinned); err != nil {
		h.Log.Error("notice pin update failed", zap.String("notice_id", n.ID.Hex()), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]bool{"pinned": req.Pinned})
}

// HandleDelete handles DELETE /organizations/{orgID}/notices/{noticeID}.
// Allowed for the author and organization admins.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Gate.Member(ctx, su.ID, orgID)
	if err != nil {
		shared.MembershipError(w, err)
		return
	}

	n, ok := h.loadOrgNotice(ctx, w, r, orgID)
	if !ok {
		return
	}
	if n.AuthorID != su.ID && !authz.CanManageOrg(u, orgID) {
		shared.MembershipError(w, authz.ErrForbidden)
		return
	}
	if _, err := h.Notices.Delete(ctx, n.ID); err != nil {
		h.Log.Error("notice delete failed", zap.String("notice_id", n.ID.Hex()), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// loadOrgNotice resolves {noticeID} and verifies the notice belongs to
// orgID. Writes the error response itself when the lookup fails.
func (h *Handler) loadOrgNotice(ctx context.Context, w http.ResponseWriter, r *http.Request, orgID string) (models.Notice, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "noticeID"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "notice not found")
		return models.Notice{}, false
	}
	n, err := h.Notices.GetByID(ctx, id)
	if err != nil || n.OrganizationID != orgID {
		shared.Error(w, http.StatusNotFound, "notice not found")
		return models.Notice{}, false
	}
	return n, true
}
