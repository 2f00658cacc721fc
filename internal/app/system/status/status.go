// internal/app/system/status/status.go

// Package status holds the organization status enumeration shared by stores
// and the session projection.
package status

const (
	Active    = "active"
	Suspended = "suspended"
)

// IsValid checks a value against the status set.
func IsValid(s string) bool {
	return s == Active || s == Suspended
}
