package migrate

import (
	"context"

	"github.com/avelasquez/gearshare-backend/pkg/config"
	"github.com/avelasquez/gearshare-backend/pkg/db"
	"github.com/avelasquez/gearshare-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on boot when the auto-migrate flag
// is set. Production deploys run cmd/migrate explicitly instead.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.App.IsProd() {
		if logg != nil {
			logg.Warn(ctx, "auto-migrate requested in prod, skipping")
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}

	if logg != nil {
		logg.Info(ctx, "running pending migrations")
	}
	return Run(ctx, sqlDB, DefaultDir, "up")
}
