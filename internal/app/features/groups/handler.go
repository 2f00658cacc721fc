// internal/app/features/groups/handler.go

// Package groups serves organization-scoped member sets. Any member can
// create a group and becomes its owner; deletion takes the owner or an
// organization admin.
package groups

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/features/shared"
	groupstore "github.com/moimhub/moimhub/internal/app/store/groups"
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

// Handler is the feature-level entry point for Groups.
type Handler struct {
	Groups *groupstore.Store
	Gate   *authz.Gate
	Log    *zap.Logger
}

// NewHandler constructs a Groups handler bound to a DB.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Groups: groupstore.New(db),
		Gate:   authz.NewGate(userstore.New(db)),
		Log:    logger,
	}
}

// ServeList handles GET /organizations/{orgID}/groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.Member(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	groups, err := h.Groups.ListByOrg(ctx, orgID)
	if err != nil {
		h.Log.Error("group list failed", zap.String("org_id", orgID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	shared.JSON(w, http.StatusOK, groups)
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreate handles POST /organizations/{orgID}/groups. The creator
// becomes owner and first member.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.Member(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = normalize.Name(req.Name)
	if req.Name == "" {
		shared.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	g, err := h.Groups.Create(ctx, models.Group{
		OrganizationID: orgID,
		Name:           req.Name,
		Description:    normalize.Name(req.Description),
		OwnerID:        su.ID,
	})
	if err == groupstore.ErrDuplicateGroup {
		shared.Error(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("group insert failed", zap.String("org_id", orgID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusCreated, g)
}

// HandleJoin handles POST /organizations/{orgID}/groups/{groupID}/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.Member(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	g, ok := h.loadOrgGroup(ctx, w, r, orgID)
	if !ok {
		return
	}
	if err := h.Groups.AddMember(ctx, g.ID, su.ID); err != nil {
		h.Log.Error("group join failed", zap.String("group_id", g.ID.Hex()), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// HandleLeave handles POST /organizations/{orgID}/groups/{groupID}/leave.
// The owner stays owner even after leaving the member set.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.Member(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	g, ok := h.loadOrgGroup(ctx, w, r, orgID)
	if !ok {
		return
	}
	if !g.HasMember(su.ID) {
		shared.Error(w, http.StatusNotFound, "not a member of this group")
		return
	}
	if err := h.Groups.RemoveMember(ctx, g.ID, su.ID); err != nil {
		h.Log.Error("group leave failed", zap.String("group_id", g.ID.Hex()), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// HandleDelete handles DELETE /organizations/{orgID}/groups/{groupID}.
// Allowed for the group owner and organization admins.
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

	g, ok := h.loadOrgGroup(ctx, w, r, orgID)
	if !ok {
		return
	}
	if g.OwnerID != su.ID && !authz.CanManageOrg(u, orgID) {
		shared.MembershipError(w, authz.ErrForbidden)
		return
	}
	if _, err := h.Groups.Delete(ctx, g.ID); err != nil {
		h.Log.Error("group delete failed", zap.String("group_id", g.ID.Hex()), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// loadOrgGroup resolves {groupID} and verifies the group belongs to orgID.
// Writes the error response itself when the lookup fails.
func (h *Handler) loadOrgGroup(ctx context.Context, w http.ResponseWriter, r *http.Request, orgID string) (models.Group, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "group not found")
		return models.Group{}, false
	}
	g, err := h.Groups.GetByID(ctx, id)
	if err != nil || g.OrganizationID != orgID {
		shared.Error(w, http.StatusNotFound, "group not found")
		return models.Group{}, false
	}
	return g, true
}
