// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	userstore "github.com/moimhub/moimhub/internal/app/store/users"
	"github.com/moimhub/moimhub/internal/app/system/normalize"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureSuperAdmin promotes the configured account to the global superadmin
// role. An account that has not signed up yet is skipped; promotion happens
// on a later restart once the account exists.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)
	email = normalize.Email(email)

	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		logger.Warn("superadmin account not found, promotion deferred",
			zap.String("email", email))
		return nil
	}
	if u.GlobalRole == models.RoleSuperAdmin {
		return nil
	}

	if err := users.SetGlobalRole(ctx, u.ID, models.RoleSuperAdmin); err != nil {
		return err
	}
	logger.Info("promoted superadmin", zap.String("email", email), zap.String("user_id", u.ID))
	return nil
}
