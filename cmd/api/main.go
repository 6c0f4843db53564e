package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"auctionhouse-api/internal/auth"
	"auctionhouse-api/internal/cache"
	"auctionhouse-api/internal/config"
	"auctionhouse-api/internal/handler"
	"auctionhouse-api/internal/metrics"
	"auctionhouse-api/internal/middleware"
	"auctionhouse-api/internal/notify"
	"auctionhouse-api/internal/repository"
	"auctionhouse-api/internal/router"
	"auctionhouse-api/internal/service"
	"auctionhouse-api/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.App.LogLevel)
	log := logging.Component("main")
	log.Info("starting", "app", cfg.App.Name, "version", cfg.App.Version, "env", cfg.App.Environment)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Auction store
	store, err := openStore(cfg.Store)
	if err != nil {
		log.Error("failed to open store", "type", cfg.Store.Type, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("store ready", "dialect", store.Dialect())

	// Capability cache; Redis also carries the cross-instance change feed.
	var (
		roleCache   cache.Cache
		redisCache  *cache.RedisCache
		healthCheck = map[string]handler.Pinger{"store": store}
	)
	if strings.EqualFold(cfg.Cache.Type, "redis") {
		redisCache, err = cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
		if err != nil {
			log.Warn("redis unavailable, using in-memory cache", "error", err)
		} else {
			roleCache = redisCache
			healthCheck["redis"] = redisPinger{redisCache}
		}
	}
	if roleCache == nil {
		roleCache = cache.NewMemoryCache(time.Minute)
	}
	defer roleCache.Close()

	// Change feed
	hub := notify.NewHub()
	go hub.Run(ctx)

	var publishers notify.Multi
	if redisCache != nil {
		broker := notify.NewRedisBroker(redisCache.Client(), cfg.Events.RedisChannelPrefix)
		publishers = append(publishers, broker)
		go func() {
			if err := broker.Relay(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("redis relay stopped", "error", err)
			}
		}()
	} else {
		publishers = append(publishers, hub)
	}

	var natsPub *notify.NATSPublisher
	if cfg.Events.NATSURL != "" {
		natsPub, err = notify.NewNATSPublisher(ctx, notify.NATSConfig{
			URL:           cfg.Events.NATSURL,
			SubjectPrefix: cfg.Events.SubjectPrefix,
			Stream:        cfg.Events.Stream,
			MaxAge:        cfg.Events.StreamMaxAge,
		})
		if err != nil {
			log.Warn("nats unavailable, downstream event stream disabled", "error", err)
		} else {
			publishers = append(publishers, natsPub)
		}
	}

	// Services
	m := metrics.New()
	opts := service.Options{Publisher: publishers, Metrics: m}

	roles := service.NewRoleService(store, roleCache, cfg.Cache.TTL, opts)
	if err := roles.Bootstrap(ctx, cfg.Auth.BootstrapAdmins); err != nil {
		log.Error("failed to bootstrap admins", "error", err)
		os.Exit(1)
	}
	listings := service.NewListingService(store, store, service.ListingConfig{
		RecentlyEndedWindow: cfg.Auction.RecentlyEndedWindow,
	}, opts)
	bidding := service.NewBiddingService(store, cfg.Auction.SnipingWindow, opts)
	moderation := service.NewModerationService(store, roles, opts)
	profiles := service.NewProfileService(store, roles, opts)

	sweeper := service.NewSweeper(store, service.SweeperConfig{
		Interval:  cfg.Auction.SweepInterval,
		BatchSize: cfg.Auction.SweepBatchSize,
	}, opts)
	sweeper.Start()

	// HTTP
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	r := router.New(router.Config{
		Handler:        handler.New(cfg.App.Version, healthCheck),
		AuctionHandler: handler.NewAuctionHandler(listings, bidding),
		UserHandler:    handler.NewUserHandler(profiles, listings),
		AdminHandler:   handler.NewAdminHandler(moderation, roles, sweeper, store, store.Dialect()),
		WSHandler:      handler.NewWSHandler(listings, hub),
		Metrics:        m,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequireAuth:    middleware.RequireAuth(jwtManager),
		OptionalAuth:   middleware.OptionalAuth(jwtManager),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", "addr", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	sweeper.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	stop()
	hub.Stop()
	if natsPub != nil {
		if err := natsPub.Close(); err != nil {
			log.Warn("nats drain failed", "error", err)
		}
	}

	log.Info("server stopped")
}

func openStore(cfg config.StoreConfig) (*repository.SQLStore, error) {
	switch strings.ToLower(cfg.Type) {
	case "postgres", "postgresql":
		return repository.NewPostgresStore(cfg.PostgresDSN())
	case "mysql":
		return repository.NewMySQLStore(cfg.MySQLDSN())
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, err
		}
		return repository.NewSQLiteStore(cfg.Path)
	}
}

// redisPinger adapts the cache client to the readiness check.
type redisPinger struct {
	c *cache.RedisCache
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.c.Client().Ping(ctx).Err()
}
