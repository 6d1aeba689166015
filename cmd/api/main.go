package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/azafe/MyPhone-Backend/api"
	"github.com/azafe/MyPhone-Backend/api/controllers"
	"github.com/azafe/MyPhone-Backend/api/routes"
	"github.com/azafe/MyPhone-Backend/internal/catalog"
	"github.com/azafe/MyPhone-Backend/internal/idempotency"
	"github.com/azafe/MyPhone-Backend/internal/sales"
	"github.com/azafe/MyPhone-Backend/pkg/config"
	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/logger"
	"github.com/azafe/MyPhone-Backend/pkg/migrate"
	"github.com/azafe/MyPhone-Backend/pkg/outbox"
	"github.com/azafe/MyPhone-Backend/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "load config", err, nil)
		os.Exit(1)
	}
	logger.Init(logger.Options{
		Level:   cfg.App.LogLevel,
		Format:  cfg.App.LogFmt,
		Service: cfg.App.Service,
	})

	client, err := db.New(cfg.DB)
	if err != nil {
		logger.Error(ctx, "connect database", err, nil)
		os.Exit(1)
	}
	defer client.Close()

	migrate.MaybeRunDev(ctx, client, cfg.Flags.AutoMigrate)

	var cache catalog.Store
	if cfg.Redis.Enabled {
		rdb := redis.New(cfg.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			logger.Warn(ctx, "redis unreachable, catalog cache disabled", map[string]any{
				"addr": cfg.Redis.Addr,
			})
		} else {
			cache = rdb
		}
	}

	catalogSvc := catalog.NewService(client, cache)
	emitter := outbox.NewEmitter(outbox.NewRepository(client.Gorm()))
	saleSvc := sales.NewService(client, emitter, catalogSvc)
	coordinator := idempotency.NewCoordinator(client)

	router := routes.NewRouter(routes.Dependencies{
		Config: cfg,
		Health: controllers.NewHealthController(client),
		Sales:  controllers.NewSalesController(saleSvc, coordinator),
		Stock:  controllers.NewStockController(catalogSvc),
	})

	logger.Info(ctx, "api starting", map[string]any{
		"env":  cfg.App.Env,
		"port": cfg.App.Port,
	})
	server := api.NewServer(cfg.App.Port, router)
	if err := server.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped", err, nil)
		os.Exit(1)
	}
}
