// internal/app/features/sessionstate/handler.go

// Package sessionstate exposes the live session projection: a one-shot
// snapshot, an SSE stream of snapshot changes, and the active-organization
// switch. Browser tabs of the same user share one resolver through the hub.
package sessionstate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/moimhub/moimhub/internal/app/features/shared"
	"github.com/moimhub/moimhub/internal/app/session"
	"github.com/moimhub/moimhub/internal/app/system/auth"
	"go.uber.org/zap"
)

// snapshotWait bounds how long the one-shot endpoint waits for the first
// loaded snapshot before returning whatever state it has.
const snapshotWait = 2 * time.Second

// Handler is the feature-level entry point for session state.
type Handler struct {
	Hub      *session.Hub
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

// NewHandler constructs a sessionstate Handler.
func NewHandler(hub *session.Hub, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Hub: hub, Sessions: sessions, Log: logger}
}

func identityOf(su *auth.SessionUser) session.Identity {
	return session.Identity{
		UserID:    su.ID,
		Name:      su.Name,
		Email:     su.Email,
		CreatedAt: su.CreatedAt,
	}
}

// Snapshot handles GET /session: the current session state as one JSON
// document. Waits briefly for the first document load so fresh sign-ins see
// their membership instead of a loading placeholder.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	res, err := h.Hub.Acquire(r.Context(), identityOf(su))
	if err != nil {
		h.Log.Error("session resolver failed", zap.String("user_id", su.ID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer h.Hub.Release(su.ID)

	h.applyStoredActiveOrg(r, res)

	snap := res.Snapshot()
	if snap.Loading {
		snap = waitLoaded(res, snapshotWait)
	}
	shared.JSON(w, http.StatusOK, snap)
}

// Stream handles GET /session/stream: an SSE stream that emits the current
// snapshot on connect and every change afterwards.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	su, _ := auth.CurrentUser(r)

	res, err := h.Hub.Acquire(r.Context(), identityOf(su))
	if err != nil {
		h.Log.Error("session resolver failed", zap.String("user_id", su.ID), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer h.Hub.Release(su.ID)

	h.applyStoredActiveOrg(r, res)

	ch, cancel := res.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case snap, open := <-ch:
			if !open {
				return
			}
			b, err := json.Marshal(snap)
			if err != nil {
				h.Log.Error("snapshot marshal failed", zap.Error(err))
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}

type activeOrgRequest struct {
	OrganizationID string `json:"organization_id"`
}

// SetActiveOrg handles POST /session/active-org: switches the active
// organization. The choice is persisted in the cookie session and applied
// immediately to the live resolver, if one is running.
func (h *Handler) SetActiveOrg(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	var req activeOrgRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Sessions.SetActiveOrgID(w, r, req.OrganizationID); err != nil {
		h.Log.Error("active org save failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if res, ok := h.Hub.Get(su.ID); ok {
		res.SetActiveOrganization(r.Context(), req.OrganizationID)
		shared.JSON(w, http.StatusOK, res.Snapshot())
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{
		"active_organization_id": req.OrganizationID,
	})
}

// applyStoredActiveOrg replays the cookie-persisted selection onto a
// resolver that has not made one yet.
func (h *Handler) applyStoredActiveOrg(r *http.Request, res *session.Resolver) {
	orgID := h.Sessions.ActiveOrgID(r)
	if orgID == "" {
		return
	}
	if res.Snapshot().ActiveOrganizationID == orgID {
		return
	}
	res.SetActiveOrganization(r.Context(), orgID)
}

// waitLoaded blocks until the resolver publishes a non-loading snapshot or
// the wait expires.
func waitLoaded(res *session.Resolver, wait time.Duration) session.Snapshot {
	ch, cancel := res.Subscribe()
	defer cancel()

	deadline := time.After(wait)
	snap := res.Snapshot()
	for {
		select {
		case s, open := <-ch:
			if !open {
				return snap
			}
			snap = s
			if !snap.Loading {
				return snap
			}
		case <-deadline:
			return snap
		}
	}
}
