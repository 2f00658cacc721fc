package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/moimhub/moimhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser is the identity injected into handler tests. It mirrors what the
// session cookie carries: who the user is and when their account was
// created. Membership and roles live in the user document, not here.
type TestUser struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// SignedInUser returns a TestUser whose account is old enough to be past
// the ghost grace window.
func SignedInUser() TestUser {
	return TestUser{
		ID:        primitive.NewObjectID().Hex(),
		Name:      "Test User",
		Email:     "user@test.com",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
}

// FreshUser returns a TestUser whose account was created just now, inside
// the ghost grace window.
func FreshUser() TestUser {
	return TestUser{
		ID:        primitive.NewObjectID().Hex(),
		Name:      "Fresh User",
		Email:     "fresh@test.com",
		CreatedAt: time.Now().UTC(),
	}
}

// WithUser adds a user to the request context for testing authenticated
// handlers. This bypasses the session middleware and injects the user
// directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
