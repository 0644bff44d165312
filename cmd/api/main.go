package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"baches/internal/cache"
	"baches/internal/config"
	"baches/internal/geocode"
	"baches/internal/handlers"
	"baches/internal/jobs"
	"baches/internal/kv"
	"baches/internal/log"
	"baches/internal/queue"
	"baches/internal/remote"
	"baches/internal/report"
	"baches/internal/roster"
	"baches/internal/server"
	"baches/internal/session"
	"baches/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)

	ctx := context.Background()

	store, err := kv.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}

	var redisClient *redis.Client
	if cfg.Queue.Enabled || cfg.Store.Driver == "redis" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
	}

	reportsLocal := report.NewLocalRepository(store, logger)
	if err := reportsLocal.RemoveLegacy(ctx); err != nil {
		logger.Warn().Err(err).Msg("remove legacy report slot")
	}

	var (
		auth       session.Authenticator
		repo       report.Repository = reportsLocal
		rosterSvc  *roster.Service
		enrichment report.EnrichQueue
		sweeps     jobs.SweepEnqueuer
	)
	switch cfg.Backend {
	case config.BackendRemote:
		client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout, logger)
		auth = session.NewRemoteAuthenticator(client)
		repo = report.NewRemoteRepository(client)
		rosterSvc = roster.NewService(client, logger)
	default:
		auth = session.NewLocalAuthenticator(store, cfg.Security.SessionSecret, logger)
		if cfg.Queue.Enabled {
			publisher := queue.NewPublisher(redisClient, cfg.Queue.Stream)
			enrichment = publisher
			sweeps = publisher
		}
	}

	sessions := session.NewManager(session.NewStore(store, logger), auth, logger)
	if restored := sessions.Restore(ctx); restored != nil {
		logger.Info().Str("user", restored.User).Msg("session restored")
	}

	geocoder := geocode.FromConfig(cfg.Geocode, redisClient, logger)

	opts := report.Options{
		Geocoder:      geocoder,
		Queue:         enrichment,
		MaxPhotoBytes: int64(cfg.Storage.MaxPhotoMB) << 20,
	}
	if cfg.Storage.Enabled {
		photos, err := storage.NewPhotoStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := photos.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		opts.Photos = photos
	}

	checks := map[string]handlers.CheckFunc{
		"store": func(ctx context.Context) error {
			_, err := store.Get(ctx, session.Key)
			if errors.Is(err, kv.ErrNotFound) {
				return nil
			}
			return err
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Deps{
		Sessions: sessions,
		Reports:  report.NewService(repo, opts, logger),
		Roster:   rosterSvc,
		Geocoder: geocoder,
		Checks:   checks,
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(sweeps, cfg.Jobs.SweepSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, store, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, store kv.Store, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	if err := store.Close(); err != nil {
		logger.Error().Err(err).Msg("store close error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
