package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"tapedeck/internal/catalog"
	"tapedeck/internal/ledger"
	"tapedeck/internal/media"
	"tapedeck/internal/pipeline"
	"tapedeck/internal/searchcache"
	"tapedeck/internal/server"
	"tapedeck/internal/shared"
	"tapedeck/internal/store"
)

// Serve wires the pipeline together and runs the HTTP server until
// interrupted. Optional backends (S3, Redis, the catalog) degrade to local
// fallbacks rather than blocking startup.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String("config"); path != "" && path != "config.toml" {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		r.config = loaded
	}
	cfg := r.config

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := r.openStore(ctx, cfg)
	cache := r.openSearchCache(ctx, cfg)

	var cat *catalog.Catalog
	if cfg.Catalog.Path != "" {
		opened, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			r.logger.Warn("catalog unavailable, metadata will not survive restarts", "err", err)
		} else {
			cat = opened
			defer cat.Close()
		}
	}

	resolver := media.NewResolver(media.ExecRunner{}, cfg.Tools, r.logger)
	converter, err := media.NewConverter(media.ExecRunner{}, resolver, st, cfg.Storage.WorkDir, cfg.Tools, r.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize converter: %w", err)
	}

	pipe := pipeline.New(pipeline.Opts{
		Ledger:      ledger.New(cfg.Ledger.Grace(), r.logger),
		Converter:   converter,
		Searcher:    resolver,
		Store:       st,
		Catalog:     cat,
		Cache:       cache,
		SearchLimit: cfg.Cache.SearchLimit,
		Logger:      r.logger,
		BaseContext: ctx,
	})

	router := server.NewBasicRouter()
	router.Use(
		server.RequestLogger(r.logger),
		server.CORS(cfg.Server.AllowedOrigins),
		server.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	)
	server.NewAPI(pipe, st, cfg.Server.ExposeErrorDetails, r.logger).Register(router)

	return server.New(cfg.Server, router, r.logger).Run(ctx)
}

// openStore selects the artifact store backend. An unreachable S3 bucket
// degrades to the local store so already-cached artifacts keep serving.
func (r *Runner) openStore(ctx context.Context, cfg *shared.Config) store.Store {
	if cfg.Storage.Backend == "s3" {
		s3Store, err := store.NewS3Store(ctx, cfg.Storage.S3)
		if err == nil {
			r.logger.Info("using S3 artifact store", "bucket", cfg.Storage.S3.Bucket)
			return s3Store
		}
		r.logger.Warn("S3 unreachable, degrading to local store", "bucket", cfg.Storage.S3.Bucket, "err", err)
	}

	local, err := store.NewLocalStore(cfg.Storage.WorkDir, r.publicAudioBase(cfg))
	if err != nil {
		r.logger.Fatalf("failed to initialize local store: %v", err)
	}
	return local
}

// openSearchCache connects to Redis when configured, falling back to the
// in-process cache when the ping fails.
func (r *Runner) openSearchCache(ctx context.Context, cfg *shared.Config) searchcache.Cache {
	ttl := cfg.Cache.SearchTTL()
	if cfg.Redis.Addr == "" {
		return searchcache.NewMemoryCache(ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		r.logger.Warn("redis unreachable, using in-memory search cache", "addr", cfg.Redis.Addr, "err", err)
		return searchcache.NewMemoryCache(ttl)
	}

	r.logger.Info("using redis search cache", "addr", cfg.Redis.Addr)
	return searchcache.NewRedisCache(client, ttl, r.logger)
}

// publicAudioBase is the URL prefix clients use to fetch stored artifacts.
func (r *Runner) publicAudioBase(cfg *shared.Config) string {
	base := cfg.Server.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("http://%s", cfg.Server.Addr())
	}
	return base + "/audio"
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the track cache HTTP service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Serve,
	}
}
