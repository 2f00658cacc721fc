// internal/app/membership/errors.go
package membership

import "errors"

// Validation errors are detected locally before the mutating write and
// returned to the caller; the store never sees the rejected operation.
// Store/transport failures are propagated as-is, uninterpreted.
var (
	// ErrInvalidCode means the invite code matches neither the admin nor
	// the user code of any organization.
	ErrInvalidCode = errors.New("invite code does not match any organization")

	// ErrOrganizationSuspended means the matched organization is not
	// accepting members.
	ErrOrganizationSuspended = errors.New("organization is suspended")

	// ErrAlreadyMember is the idempotency guard on join. The surrounding
	// application treats it as informational, not as a failure.
	ErrAlreadyMember = errors.New("already a member of this organization")

	// ErrLastOrganization blocks leaving a sole membership; withdrawal is a
	// separate account-deletion flow.
	ErrLastOrganization = errors.New("cannot leave the only organization")

	// ErrNotMember guards profile updates against writing an orphan entry
	// for an organization the caller does not belong to.
	ErrNotMember = errors.New("not a member of this organization")
)
