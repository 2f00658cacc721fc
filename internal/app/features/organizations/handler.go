// internal/app/features/organizations/handler.go

// Package organizations exposes organization membership over HTTP: joining
// by invite code, leaving, per-organization profile updates, and the
// superadmin management surface (create, list, suspend).
package organizations

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/features/shared"
	"github.com/moimhub/moimhub/internal/app/membership"
	organizationstore "github.com/moimhub/moimhub/internal/app/store/organizations"
	userstore "github.com/moimhub/moimhub/internal/app/store/users"
	"github.com/moimhub/moimhub/internal/app/system/auth"
	"github.com/moimhub/moimhub/internal/app/system/authz"
	"github.com/moimhub/moimhub/internal/app/system/normalize"
	"github.com/moimhub/moimhub/internal/app/system/timeouts"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Organizations.
type Handler struct {
	Orgs    *organizationstore.Store
	Users   *userstore.Store
	Members *membership.Service
	Gate    *authz.Gate
	Log     *zap.Logger
}

// NewHandler constructs an Organizations handler bound to a DB and the
// membership service.
func NewHandler(db *mongo.Database, members *membership.Service, logger *zap.Logger) *Handler {
	users := userstore.New(db)
	return &Handler{
		Orgs:    organizationstore.New(db),
		Users:   users,
		Members: members,
		Gate:    authz.NewGate(users),
		Log:     logger,
	}
}

type joinRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Contact    string `json:"contact"`
}

type joinResponse struct {
	Organization orgView `json:"organization"`
	Role         string  `json:"role"`
}

// orgView is the member-visible projection of an organization. Invite codes
// are exposed separately and only to admins.
type orgView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info,omitempty"`
	Status      string `json:"status"`
}

func viewOf(org *models.Organization) orgView {
	return orgView{
		ID:          org.ID.Hex(),
		Name:        org.Name,
		ContactInfo: org.ContactInfo,
		Status:      org.Status,
	}
}

// HandleJoin handles POST /organizations/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	var req joinRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Members.JoinByInviteCode(ctx, su.ID, req.Code, membership.ProfileFields{
		Name:       req.Name,
		Department: req.Department,
		Contact:    req.Contact,
	})
	if err != nil {
		shared.MembershipError(w, err)
		return
	}

	shared.JSON(w, http.StatusOK, joinResponse{
		Organization: viewOf(res.Organization),
		Role:         res.Role,
	})
}

// HandleLeave handles POST /organizations/{orgID}/leave.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Members.LeaveOrganization(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "left"})
}

type profileRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Contact    string `json:"contact"`
}

// HandleUpdateProfile handles PUT /organizations/{orgID}/profile.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	var req profileRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Members.UpdateOrganizationProfile(ctx, su.ID, orgID, membership.ProfileFields{
		Name:       req.Name,
		Department: req.Department,
		Contact:    req.Contact,
	})
	if err != nil {
		shared.MembershipError(w, err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeMine handles GET /organizations: the caller's organizations, in
// membership order. Superadmins get every organization instead.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Get(ctx, su.ID)
	if err != nil {
		h.Log.Error("user lookup failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if authz.IsSuperAdmin(u) {
		orgs, err := h.Orgs.List(ctx)
		if err != nil {
			h.Log.Error("organization list failed", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		views := make([]orgView, 0, len(orgs))
		for i := range orgs {
			views = append(views, viewOf(&orgs[i]))
		}
		shared.JSON(w, http.StatusOK, views)
		return
	}

	views := []orgView{}
	if u != nil {
		for _, orgID := range u.MemberOrganizationIDs() {
			org, err := h.Orgs.GetByHexID(ctx, orgID)
			if err != nil {
				// A dangling membership id is logged, not fatal to the list.
				h.Log.Warn("member organization missing",
					zap.String("org_id", orgID), zap.Error(err))
				continue
			}
			views = append(views, viewOf(&org))
		}
	}
	shared.JSON(w, http.StatusOK, views)
}

// ServeDetail handles GET /organizations/{orgID}. Members see the basic
// view; organization admins additionally see the invite codes.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Gate.Member(ctx, su.ID, orgID)
	if err != nil {
		shared.MembershipError(w, err)
		return
	}

	org, err := h.Orgs.GetByHexID(ctx, orgID)
	if err != nil {
		shared.Error(w, http.StatusNotFound, "organization not found")
		return
	}

	if authz.CanManageOrg(u, orgID) {
		shared.JSON(w, http.StatusOK, struct {
			orgView
			AdminInviteCode string `json:"admin_invite_code"`
			UserInviteCode  string `json:"user_invite_code"`
		}{
			orgView:         viewOf(&org),
			AdminInviteCode: org.AdminInviteCode,
			UserInviteCode:  org.UserInviteCode,
		})
		return
	}
	shared.JSON(w, http.StatusOK, viewOf(&org))
}

type createRequest struct {
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info"`
}

// HandleCreate handles POST /organizations (superadmin only).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.SuperAdmin(ctx, su.ID); err != nil {
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

	org, err := h.Orgs.Create(ctx, models.Organization{
		Name:        req.Name,
		ContactInfo: normalize.Name(req.ContactInfo),
	})
	if err == organizationstore.ErrDuplicateOrganization {
		shared.Error(w, http.StatusConflict, "an organization with this name already exists")
		return
	}
	if err != nil {
		h.Log.Error("organization insert failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("organization created",
		zap.String("org_id", org.ID.Hex()),
		zap.String("name", org.Name),
		zap.String("created_by", su.ID))

	shared.JSON(w, http.StatusCreated, struct {
		orgView
		AdminInviteCode string `json:"admin_invite_code"`
		UserInviteCode  string `json:"user_invite_code"`
	}{
		orgView:         viewOf(&org),
		AdminInviteCode: org.AdminInviteCode,
		UserInviteCode:  org.UserInviteCode,
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus handles POST /organizations/{orgID}/status (superadmin
// only). Live sessions with this organization active observe the change
// through their status subscription.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.SuperAdmin(ctx, su.ID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	var req statusRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	org, err := h.Orgs.GetByHexID(ctx, orgID)
	if err != nil {
		shared.Error(w, http.StatusNotFound, "organization not found")
		return
	}
	if err := h.Orgs.SetStatus(ctx, org.ID, normalize.Status(req.Status)); err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	h.Log.Info("organization status changed",
		zap.String("org_id", orgID),
		zap.String("status", normalize.Status(req.Status)),
		zap.String("changed_by", su.ID))

	shared.JSON(w, http.StatusOK, map[string]string{"status": normalize.Status(req.Status)})
}
