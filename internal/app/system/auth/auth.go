// internal/app/system/auth/auth.go

// Package auth owns the cookie-backed identity session: who is signed in,
// when their account was created, and the middleware that injects that
// identity into request context.
//
// The identity here is deliberately thin. Membership state (organization
// ids, profiles, roles) is not cached in the cookie; it is resolved live
// from the user document by the session package so that role changes and
// membership changes take effect without re-login.
package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey    = "is_authenticated"
	userIDKey    = "user_id"
	userNameKey  = "user_name"
	userEmailKey = "user_email"
	createdAtKey = "account_created_at"
	activeOrgKey = "active_org_id"
)

// SessionUser is the authenticated identity cached in the cookie session and
// injected into r.Context(). CreatedAt is the account-creation timestamp
// delivered by the identity provider; the session resolver uses it for the
// ghost-user grace window.
type SessionUser struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user from request context, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// SessionManager wraps the gorilla cookie store with sign-in/sign-out
// operations and a server-side revocation list for forced sign-outs.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger

	mu      sync.Mutex
	revoked map[string]struct{}
}

// NewSessionManager builds a SessionManager. An empty session key is allowed
// only for convenience in dev: a random one is generated, which invalidates
// all sessions on restart.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		key := securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, fmt.Errorf("session key generation failed")
		}
		sessionKey = base64.StdEncoding.EncodeToString(key)
		logger.Warn("no session key configured; generated a volatile dev key")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{
		store:   store,
		name:    sessionName,
		log:     logger,
		revoked: make(map[string]struct{}),
	}, nil
}

// SignIn records the identity in the cookie session.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	sess.Values[createdAtKey] = u.CreatedAt.UTC().Unix()
	sm.mu.Lock()
	delete(sm.revoked, u.ID)
	sm.mu.Unlock()
	return sess.Save(r, w)
}

// SignOut clears the cookie session.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Revoke marks an identity for forced sign-out. The next request carrying a
// session for this user has its cookie cleared instead of being loaded.
// Used by ghost-user reconciliation, which runs outside any request scope.
func (sm *SessionManager) Revoke(userID string) {
	sm.mu.Lock()
	sm.revoked[userID] = struct{}{}
	sm.mu.Unlock()
	sm.log.Info("session revoked", zap.String("user_id", userID))
}

func (sm *SessionManager) isRevoked(userID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, ok := sm.revoked[userID]
	return ok
}

// ActiveOrgID returns the session's active organization id, or "".
func (sm *SessionManager) ActiveOrgID(r *http.Request) string {
	sess, _ := sm.store.Get(r, sm.name)
	if v, ok := sess.Values[activeOrgKey].(string); ok {
		return v
	}
	return ""
}

// SetActiveOrgID stores the active organization id in the session. No
// membership validation happens here; an id the user does not belong to
// simply projects to no capabilities.
func (sm *SessionManager) SetActiveOrgID(w http.ResponseWriter, r *http.Request, orgID string) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[activeOrgKey] = orgID
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are signed in.
// Revoked identities get their cookie cleared and continue as signed out.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sm.store.Get(r, sm.name)

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:    getString(sess, userIDKey),
				Name:  getString(sess, userNameKey),
				Email: getString(sess, userEmailKey),
			}
			if unix, ok := sess.Values[createdAtKey].(int64); ok {
				u.CreatedAt = time.Unix(unix, 0).UTC()
			}

			if u.ID != "" && sm.isRevoked(u.ID) {
				sess.Values = map[interface{}]interface{}{}
				sess.Options.MaxAge = -1
				_ = sess.Save(r, w)
				sm.mu.Lock()
				delete(sm.revoked, u.ID)
				sm.mu.Unlock()
				next.ServeHTTP(w, r)
				return
			}

			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// API callers get a plain 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// WithTestUser injects a user directly into the request context, bypassing
// the cookie store. Test helper only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
