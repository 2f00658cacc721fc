// internal/app/features/bookmarks/handler.go

// Package bookmarks serves a user's ordered link list. Ordering is dense:
// the store renumbers on every remove and move, so indexes never gap.
package bookmarks

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/features/shared"
	bookmarkstore "github.com/moimhub/moimhub/internal/app/store/bookmarks"
	"github.com/moimhub/moimhub/internal/app/system/auth"
	"github.com/moimhub/moimhub/internal/app/system/normalize"
	"github.com/moimhub/moimhub/internal/app/system/timeouts"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Bookmarks.
type Handler struct {
	Bookmarks *bookmarkstore.Store
	Log       *zap.Logger
}

// NewHandler constructs a Bookmarks handler bound to a DB.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Bookmarks: bookmarkstore.New(db), Log: logger}
}

// ServeList handles GET /bookmarks.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Bookmarks.List(ctx, su.ID)
	if err != nil {
		h.Log.Error("bookmark list failed", zap.String("user_id", su.ID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.Bookmark{}
	}
	shared.JSON(w, http.StatusOK, list)
}

type addRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// HandleAdd handles POST /bookmarks. The new entry lands at the end of the
// list.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	var req addRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = normalize.Name(req.Title)
	req.URL = normalize.Name(req.URL)
	if req.Title == "" || req.URL == "" {
		shared.Error(w, http.StatusBadRequest, "title and url are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	bm, err := h.Bookmarks.Add(ctx, su.ID, req.Title, req.URL)
	if err != nil {
		h.Log.Error("bookmark insert failed", zap.String("user_id", su.ID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusCreated, bm)
}

// HandleRemove handles DELETE /bookmarks/{bookmarkID}. Entries after the
// removed one shift up.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "bookmarkID"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "bookmark not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Bookmarks.Remove(ctx, su.ID, id); err != nil {
		if errors.Is(err, bookmarkstore.ErrNotFound) {
			shared.Error(w, http.StatusNotFound, "bookmark not found")
			return
		}
		h.Log.Error("bookmark remove failed", zap.String("user_id", su.ID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type moveRequest struct {
	ToIndex int `json:"to_index"`
}

// HandleMove handles POST /bookmarks/{bookmarkID}/move. The target index is
// clamped to the list bounds.
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "bookmarkID"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "bookmark not found")
		return
	}

	var req moveRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Bookmarks.Move(ctx, su.ID, id, req.ToIndex); err != nil {
		if errors.Is(err, bookmarkstore.ErrNotFound) {
			shared.Error(w, http.StatusNotFound, "bookmark not found")
			return
		}
		h.Log.Error("bookmark move failed", zap.String("user_id", su.ID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	list, err := h.Bookmarks.List(ctx, su.ID)
	if err != nil {
		h.Log.Error("bookmark list failed", zap.String("user_id", su.ID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.JSON(w, http.StatusOK, list)
}
