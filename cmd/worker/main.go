package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"baches/internal/cache"
	"baches/internal/config"
	"baches/internal/geocode"
	"baches/internal/jobs"
	"baches/internal/kv"
	"baches/internal/log"
	"baches/internal/queue"
	"baches/internal/report"
	"baches/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level).With().Str("component", "worker").Logger()

	if cfg.Backend != config.BackendLocal {
		logger.Fatal().Str("backend", cfg.Backend).Msg("the enrichment worker only serves the local backend")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	store, err := kv.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer store.Close()

	geocoder := geocode.FromConfig(cfg.Geocode, client, logger)
	if geocoder == nil {
		logger.Warn().Msg("geocoding disabled, tasks will be acknowledged without enrichment")
	}

	processor := tasks.NewProcessor(report.NewLocalRepository(store, logger), geocoder, logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Queue.Stream,
		cfg.Queue.Group,
		cfg.Queue.Consumer,
		cfg.Queue.ClaimInterval,
		logger,
		processor,
	)

	scheduler := jobs.NewScheduler(queue.NewPublisher(client, cfg.Queue.Stream), cfg.Jobs.SweepSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}
	defer scheduler.Stop()

	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			logger.Warn().Msg("consumer did not stop in time")
		}
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		}
	}
}
