// internal/app/system/normalize/normalize.go

// Package normalize provides small input normalization helpers applied at
// every boundary where user-typed values enter a store: trimming, case
// folding for identifiers, and enum lowercasing.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// AuthMethod lowercases and trims an auth method value.
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role lowercases and trims a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a free-text query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// InviteCode trims an invite code. Codes are matched exactly, so no case
// folding is applied.
func InviteCode(s string) string {
	return strings.TrimSpace(s)
}
