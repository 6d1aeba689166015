package migrate

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run applies all pending migrations.
func Run(ctx context.Context, client *db.Client) error {
	sqlDB, err := client.Gorm().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MaybeRunDev applies migrations when the auto-migrate flag is on,
// logging instead of failing hard on error. Intended for local
// development only.
func MaybeRunDev(ctx context.Context, client *db.Client, enabled bool) {
	if !enabled {
		return
	}
	if err := Run(ctx, client); err != nil {
		logger.Error(ctx, "auto-migrate failed", err, nil)
		return
	}
	logger.Info(ctx, "auto-migrate applied", nil)
}
