package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marketgame/market-engine/internal/config"
	"github.com/marketgame/market-engine/internal/game"
	"github.com/marketgame/market-engine/internal/random"
	"github.com/marketgame/market-engine/internal/scenario"
	"github.com/marketgame/market-engine/internal/server"
	"github.com/marketgame/market-engine/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a game over HTTP and WebSocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, slog.Default())
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	rng := newSource(cfg.Game.Seed)
	mc := cfg.Market()
	s, err := scenario.Build(cfg.Game.Scenario, mc, rng, logger, cfg.Game.InboxWindow)
	if err != nil {
		return err
	}
	g := game.New(s, cfg.Orchestrator(), rng, logger)
	g.Start()

	hub := server.NewHub(logger)
	svc := server.NewService(g, st, hub, rng, server.Options{
		Market:      mc,
		Game:        cfg.Orchestrator(),
		InboxWindow: cfg.Game.InboxWindow,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      svc.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  60 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return hub.Run(egCtx)
	})
	eg.Go(func() error {
		logger.Info("market-engine listening", "addr", cfg.Server.Addr, "scenario", cfg.Game.Scenario)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("shutting down market-engine...")
		return srv.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	logger.Info("market-engine stopped")
	return nil
}

// openStore picks the save backend: PostgreSQL (optionally behind Redis),
// else a save directory, else memory. A configured bucket archives every
// save to S3 on top of that.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	var (
		st      store.Store
		cleanup []func()
	)
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	switch {
	case cfg.Database.DSN != "":
		pool, err := pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		cleanup = append(cleanup, pool.Close)
		pg := store.NewPostgresStore(pool)
		if cfg.Database.RunMigrations {
			if err := pg.Migrate(ctx); err != nil {
				closeAll()
				return nil, nil, err
			}
		}
		st = pg
		logger.Info("connected to PostgreSQL")

		if cfg.Redis.URL != "" {
			opt, err := redis.ParseURL(cfg.Redis.URL)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("invalid redis url: %w", err)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.Redis.CacheTTL.Duration)
			logger.Info("Redis cache enabled", "ttl", cfg.Redis.CacheTTL.Duration)
		}
	case cfg.Saves.Dir != "":
		fs, err := store.NewFileStore(cfg.Saves.Dir)
		if err != nil {
			return nil, nil, err
		}
		st = fs
		logger.Info("saving games to disk", "dir", cfg.Saves.Dir)
	default:
		logger.Warn("no database or save directory configured, using in-memory store (saves will not persist)")
		st = store.NewMemoryStore()
	}

	if cfg.S3.Bucket != "" {
		client, err := store.NewS3Client(ctx, store.ArchiveConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			Prefix:         cfg.S3.Prefix,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		st = store.NewArchiveStore(st, client, cfg.S3.Bucket, cfg.S3.Prefix, logger)
		logger.Info("S3 save archive enabled", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
	}

	return st, closeAll, nil
}

// newSource returns a seeded source, or a clock-seeded one for seed 0.
func newSource(seed uint64) *random.Source {
	if seed == 0 {
		return random.NewTimeSeeded()
	}
	return random.New(seed)
}
