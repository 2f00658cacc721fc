// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	authgooglefeature "github.com/moimhub/moimhub/internal/app/features/authgoogle"
	bookmarksfeature "github.com/moimhub/moimhub/internal/app/features/bookmarks"
	devicesfeature "github.com/moimhub/moimhub/internal/app/features/devices"
	feedbackfeature "github.com/moimhub/moimhub/internal/app/features/feedback"
	groupsfeature "github.com/moimhub/moimhub/internal/app/features/groups"
	healthfeature "github.com/moimhub/moimhub/internal/app/features/health"
	loginfeature "github.com/moimhub/moimhub/internal/app/features/login"
	logoutfeature "github.com/moimhub/moimhub/internal/app/features/logout"
	noticesfeature "github.com/moimhub/moimhub/internal/app/features/notices"
	organizationsfeature "github.com/moimhub/moimhub/internal/app/features/organizations"
	sessionstatefeature "github.com/moimhub/moimhub/internal/app/features/sessionstate"
	surveysfeature "github.com/moimhub/moimhub/internal/app/features/surveys"
	"github.com/moimhub/moimhub/internal/app/membership"
	"github.com/moimhub/moimhub/internal/app/session"
	organizationstore "github.com/moimhub/moimhub/internal/app/store/organizations"
	userstore "github.com/moimhub/moimhub/internal/app/store/users"
	"github.com/moimhub/moimhub/internal/app/system/auth"
	"github.com/moimhub/moimhub/internal/app/system/push"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE
// app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. MoimHub wires the session manager, the
// session resolver hub backed by change streams, the membership service,
// and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(db)
	orgs := organizationstore.New(db)

	// Change-stream backed sources feed the per-user resolvers. A ghost
	// user's forced sign-out revokes the cookie session through the manager.
	hub := session.NewHub(users, orgs, sessionMgr.Revoke, logger)

	members := membership.NewService(users, orgs, push.NewLogNotifier(logger), logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	loginHandler := loginfeature.NewHandler(db, sessionMgr, appCfg.TrustAuthEnabled, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	if appCfg.GoogleClientID != "" {
		googleHandler := authgooglefeature.NewHandler(db, sessionMgr,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	sessionHandler := sessionstatefeature.NewHandler(hub, sessionMgr, logger)
	r.Mount("/session", sessionstatefeature.Routes(sessionHandler, sessionMgr))

	orgHandler := organizationsfeature.NewHandler(db, members, logger)
	r.Mount("/organizations", organizationsfeature.Routes(orgHandler, sessionMgr, organizationsfeature.Subrouters{
		Notices:  noticesfeature.Routes(noticesfeature.NewHandler(db, logger)),
		Surveys:  surveysfeature.Routes(surveysfeature.NewHandler(db, logger)),
		Groups:   groupsfeature.Routes(groupsfeature.NewHandler(db, logger)),
		Feedback: feedbackfeature.Routes(feedbackfeature.NewHandler(db, logger)),
	}))

	bookmarksHandler := bookmarksfeature.NewHandler(db, logger)
	r.Mount("/bookmarks", bookmarksfeature.Routes(bookmarksHandler, sessionMgr))

	devicesHandler := devicesfeature.NewHandler(db, logger)
	r.Mount("/devices", devicesfeature.Routes(devicesHandler, sessionMgr))

	return r, nil
}
