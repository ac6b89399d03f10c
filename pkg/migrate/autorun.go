package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/orders-backend/pkg/config"
	"github.com/angelmondragon/orders-backend/pkg/db"
	"github.com/angelmondragon/orders-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on boot, only in dev with ORDERS_AUTO_MIGRATE set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if err := ValidateDir(DefaultDir); err != nil {
		return fmt.Errorf("validating migrations: %w", err)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	runner, err := NewRunner(sqlDB, DefaultDir, logg)
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "dir", DefaultDir)
	logg.Info(ctx, "auto-migrating schema")
	return runner.Up(ctx)
}
