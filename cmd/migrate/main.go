package main

import (
	"context"
	"os"

	"github.com/azafe/MyPhone-Backend/pkg/config"
	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/logger"
	"github.com/azafe/MyPhone-Backend/pkg/migrate"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "load config", err, nil)
		os.Exit(1)
	}
	logger.Init(logger.Options{
		Level:   cfg.App.LogLevel,
		Format:  cfg.App.LogFmt,
		Service: "sales-migrate",
	})

	client, err := db.New(cfg.DB)
	if err != nil {
		logger.Error(ctx, "connect database", err, nil)
		os.Exit(1)
	}
	defer client.Close()

	if err := migrate.Run(ctx, client); err != nil {
		logger.Error(ctx, "apply migrations", err, nil)
		os.Exit(1)
	}
	logger.Info(ctx, "migrations applied", nil)
}
