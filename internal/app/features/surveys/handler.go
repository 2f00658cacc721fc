// internal/app/features/surveys/handler.go

// Package surveys serves organization questionnaires. Admins create surveys
// and read responses; members submit answers, at most one response per
// member per survey.
package surveys

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/features/shared"
	surveystore "github.com/moimhub/moimhub/internal/app/store/surveys"
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

// Handler is the feature-level entry point for Surveys.
type Handler struct {
	Surveys *surveystore.Store
	Gate    *authz.Gate
	Log     *zap.Logger
}

// NewHandler constructs a Surveys handler bound to a DB.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Surveys: surveystore.New(db),
		Gate:    authz.NewGate(userstore.New(db)),
		Log:     logger,
	}
}

// ServeList handles GET /organizations/{orgID}/surveys.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.Member(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	surveys, err := h.Surveys.ListByOrg(ctx, orgID)
	if err != nil {
		h.Log.Error("survey list failed", zap.String("org_id", orgID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if surveys == nil {
		surveys = []models.Survey{}
	}
	shared.JSON(w, http.StatusOK, surveys)
}

type createRequest struct {
	Title     string     `json:"title"`
	Questions []string   `json:"questions"`
	ClosesAt  *time.Time `json:"closes_at"`
}

// HandleCreate handles POST /organizations/{orgID}/surveys (org admin only).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.OrgAdmin(ctx, su.ID, orgID); err != nil {
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
	if len(req.Questions) == 0 {
		shared.Error(w, http.StatusBadRequest, "at least one question is required")
		return
	}

	sv, err := h.Surveys.Create(ctx, models.Survey{
		OrganizationID: orgID,
		Title:          req.Title,
		Questions:      req.Questions,
		ClosesAt:       req.ClosesAt,
		AuthorID:       su.ID,
	})
	if err != nil {
		h.Log.Error("survey insert failed", zap.String("org_id", orgID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusCreated, sv)
}

// ServeDetail handles GET /organizations/{orgID}/surveys/{surveyID}. The
// caller's own response, if any, rides along.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Gate.Member(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	sv, ok := h.loadOrgSurvey(ctx, w, r, orgID)
	if !ok {
		return
	}

	out := struct {
		models.Survey
		Closed     bool                   `json:"closed"`
		MyResponse *models.SurveyResponse `json:"my_response,omitempty"`
	}{Survey: sv, Closed: sv.IsClosed(time.Now().UTC())}

	if resp, err := h.Surveys.GetResponse(ctx, sv.ID, su.ID); err == nil {
		out.MyResponse = &resp
	}
	shared.JSON(w, http.StatusOK, out)
}

type submitRequest struct {
	Answers []string `json:"answers"`
}

// HandleSubmit handles POST /organizations/{orgID}/surveys/{surveyID}/responses.
// A second submission from the same member replaces the first.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.Member(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	sv, ok := h.loadOrgSurvey(ctx, w, r, orgID)
	if !ok {
		return
	}
	if sv.IsClosed(time.Now().UTC()) {
		shared.Error(w, http.StatusConflict, "survey is closed")
		return
	}

	var req submitRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Answers) != len(sv.Questions) {
		shared.Error(w, http.StatusBadRequest, "answer count does not match question count")
		return
	}

	if err := h.Surveys.SubmitResponse(ctx, sv.ID, su.ID, req.Answers); err != nil {
		h.Log.Error("survey response write failed", zap.String("survey_id", sv.ID.Hex()), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "submitted"})
}

// ServeResponses handles GET /organizations/{orgID}/surveys/{surveyID}/responses
// (org admin only).
func (h *Handler) ServeResponses(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	orgID := chi.URLParam(r, "orgID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Gate.OrgAdmin(ctx, su.ID, orgID); err != nil {
		shared.MembershipError(w, err)
		return
	}

	sv, ok := h.loadOrgSurvey(ctx, w, r, orgID)
	if !ok {
		return
	}

	resps, err := h.Surveys.ListResponses(ctx, sv.ID)
	if err != nil {
		h.Log.Error("survey response list failed", zap.String("survey_id", sv.ID.Hex()), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if resps == nil {
		resps = []models.SurveyResponse{}
	}
	shared.JSON(w, http.StatusOK, struct {
		Count     int                     `json:"count"`
		Responses []models.SurveyResponse `json:"responses"`
	}{Count: len(resps), Responses: resps})
}

// loadOrgSurvey resolves {surveyID} and verifies the survey belongs to
// orgID. Writes the error response itself when the lookup fails.
func (h *Handler) loadOrgSurvey(ctx context.Context, w http.ResponseWriter, r *http.Request, orgID string) (models.Survey, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "surveyID"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "survey not found")
		return models.Survey{}, false
	}
	sv, err := h.Surveys.GetByID(ctx, id)
	if err != nil || sv.OrganizationID != orgID {
		shared.Error(w, http.StatusNotFound, "survey not found")
		return models.Survey{}, false
	}
	return sv, true
}
