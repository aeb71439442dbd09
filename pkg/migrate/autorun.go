package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/cogsdesk-backend/pkg/config"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

// MaybeRunDev brings a dev database up to date when COGSDESK_AUTO_MIGRATE is
// set. Postgres gets the embedded goose set; sqlite gets the gorm models.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	meta := map[string]any{"env": cfg.App.Env, "driver": client.Dialect()}
	ctx = logg.WithFields(ctx, meta)

	if client.Dialect() == config.DBDriverSQLite {
		logg.Info(ctx, "auto-migrating sqlite schema")
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sqlite automigrate: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	runner, err := NewRunner(sqlDB, Migrations(), logg)
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate.dev_autorun")
	return runner.Up(ctx)
}
