package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/azafe/MyPhone-Backend/pkg/config"
	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/instance"
	"github.com/azafe/MyPhone-Backend/pkg/logger"
	"github.com/azafe/MyPhone-Backend/pkg/outbox"
	"github.com/azafe/MyPhone-Backend/pkg/pubsub"
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
		Service: "outbox-publisher",
	})
	ctx = logger.WithFields(ctx, map[string]any{"worker_id": instance.GetID()})

	client, err := db.New(cfg.DB)
	if err != nil {
		logger.Error(ctx, "connect database", err, nil)
		os.Exit(1)
	}
	defer client.Close()

	sender, err := pubsub.New(ctx, cfg.PubSub)
	if err != nil {
		logger.Error(ctx, "connect pubsub", err, nil)
		os.Exit(1)
	}
	defer sender.Close()

	if err := sender.EnsureTopicExists(ctx, cfg.PubSub.TopicID); err != nil {
		logger.Error(ctx, "verify topic", err, nil)
		os.Exit(1)
	}

	publisher := outbox.NewPublisher(
		outbox.NewRepository(client.Gorm()),
		sender,
		cfg.PubSub.TopicID,
		cfg.Outbox,
	)
	publisher.Run(ctx)
}
