// internal/app/features/shared/respond.go

// Package shared holds the small helpers every JSON feature handler uses:
// response encoding, error envelopes, and request body decoding.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moimhub/moimhub/internal/app/membership"
	"github.com/moimhub/moimhub/internal/app/system/authz"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error envelope: {"error": "..."}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Decode reads the request body into dst. Bodies over 1 MiB are rejected.
func Decode(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}

// MembershipError maps the membership error taxonomy onto HTTP statuses.
// Unknown errors become a 500 with a generic message.
func MembershipError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, membership.ErrInvalidCode):
		Error(w, http.StatusNotFound, "invalid invite code")
	case errors.Is(err, membership.ErrOrganizationSuspended):
		Error(w, http.StatusForbidden, "organization is suspended")
	case errors.Is(err, membership.ErrAlreadyMember):
		Error(w, http.StatusConflict, "already a member of this organization")
	case errors.Is(err, membership.ErrLastOrganization):
		Error(w, http.StatusConflict, "cannot leave your last organization")
	case errors.Is(err, membership.ErrNotMember):
		Error(w, http.StatusNotFound, "not a member of this organization")
	case errors.Is(err, authz.ErrForbidden):
		Error(w, http.StatusForbidden, "forbidden")
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
