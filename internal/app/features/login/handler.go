// internal/app/features/login/handler.go

// Package login implements password and trust sign-in. Google OAuth lives in
// the authgoogle feature; all methods converge on the same cookie session.
package login

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/moimhub/moimhub/internal/app/features/shared"
	userstore "github.com/moimhub/moimhub/internal/app/store/users"
	"github.com/moimhub/moimhub/internal/app/system/auth"
	"github.com/moimhub/moimhub/internal/app/system/normalize"
	"github.com/moimhub/moimhub/internal/app/system/timeouts"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler is the feature-level entry point for sign-in.
type Handler struct {
	Users    *userstore.Store
	Sessions *auth.SessionManager
	Log      *zap.Logger

	// TrustEnabled allows sign-in by bare email, for development and
	// closed pilot deployments only.
	TrustEnabled bool
}

// NewHandler constructs a login Handler bound to a DB and session manager.
func NewHandler(db *mongo.Database, sessions *auth.SessionManager, trustEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        userstore.New(db),
		Sessions:     sessions,
		Log:          logger,
		TrustEnabled: trustEnabled,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registration struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionUserResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Register handles POST /login/register: create a password account and sign
// it in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registration
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.FullName = normalize.Name(req.FullName)
	req.Email = normalize.Email(req.Email)
	if req.FullName == "" || req.Email == "" {
		shared.Error(w, http.StatusBadRequest, "full_name and email are required")
		return
	}
	if len(req.Password) < 8 {
		shared.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		ID:           uuid.NewString(),
		FullName:     req.FullName,
		Email:        req.Email,
		AuthMethod:   "password",
		GlobalRole:   models.RoleUser,
		PasswordHash: string(hash),
	})
	if err == userstore.ErrDuplicateEmail {
		shared.Error(w, http.StatusConflict, "an account with this email already exists")
		return
	}
	if err != nil {
		h.Log.Error("register: user insert failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.signIn(w, r, &u, http.StatusCreated)
}

// Password handles POST /login: password sign-in.
func (h *Handler) Password(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.Log.Error("login: user lookup failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if u == nil || u.PasswordHash == "" {
		shared.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		shared.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.signIn(w, r, u, http.StatusOK)
}

type trustRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Trust handles POST /login/trust: sign-in by bare email. Creates the
// account on first use. Disabled unless configured.
func (h *Handler) Trust(w http.ResponseWriter, r *http.Request) {
	if !h.TrustEnabled {
		shared.Error(w, http.StatusNotFound, "not found")
		return
	}

	var req trustRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = normalize.Email(req.Email)
	if req.Email == "" {
		shared.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.Log.Error("trust login: user lookup failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if u == nil {
		name := normalize.Name(req.FullName)
		if name == "" {
			name = req.Email
		}
		created, err := h.Users.Create(ctx, models.User{
			ID:         uuid.NewString(),
			FullName:   name,
			Email:      req.Email,
			AuthMethod: "trust",
			GlobalRole: models.RoleUser,
		})
		if err != nil {
			h.Log.Error("trust login: user insert failed", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		u = &created
	}

	h.signIn(w, r, u, http.StatusOK)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, u *models.User, status int) {
	su := &auth.SessionUser{
		ID:        u.ID,
		Name:      u.FullName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
	if err := h.Sessions.SignIn(w, r, su); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.Log.Info("signed in",
		zap.String("user_id", u.ID),
		zap.String("auth_method", u.AuthMethod))
	shared.JSON(w, status, sessionUserResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
	})
}
