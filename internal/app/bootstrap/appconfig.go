// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging
// level, request limits). AppConfig is everything specific to MoimHub:
// database coordinates, session cookie settings, OAuth credentials, and
// bootstrap values applied at startup.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: moimhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for OAuth redirects (e.g., "https://moimhub.app")
	BaseURL string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Trust auth accepts any email without verification. Development only.
	TrustAuthEnabled bool

	// SuperAdmin bootstrap: the user with this email is promoted to the
	// global superadmin role on startup.
	SuperAdminEmail string
}
