package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movierama/internal/cache"
	"movierama/internal/config"
	"movierama/internal/db"
	"movierama/internal/handlers"
	"movierama/internal/logger"
	"movierama/internal/metrics"
	"movierama/internal/middleware"
	"movierama/internal/models"
	"movierama/internal/router"
	"movierama/internal/services"
	"movierama/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func setup(c *cli.Context) (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Development)

	gdb, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, gdb, nil
}

func migrate(c *cli.Context) error {
	_, log, gdb, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync()
	return db.Migrate(gdb, log)
}

func serve(c *cli.Context) error {
	cfg, log, gdb, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := db.Migrate(gdb, log); err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	pages, profiles, closeCache, err := newCaches(c.Context, cfg, log, m.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	gw := store.New(gdb)
	inv := services.NewInvalidator(pages, profiles, log)
	engine := services.NewRankingEngine(gw, cfg.Paging)
	pager := services.NewPager(engine, gw, pages, log)
	ledger := services.NewLedger(gw, inv, cfg.Vote, log, m.Vote)
	items := services.NewItemService(gw, inv, log)
	profileSvc := services.NewProfileService(gw, profiles)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(), middleware.Logger(log), middleware.Prometheus(m.HTTP))
	r.Use(sessions.Sessions(cfg.Session.Name, cookie.NewStore([]byte(cfg.Session.Secret))))
	r.Use(middleware.LoadViewer(cfg.Auth.TrustHeader))

	router.RegisterRoutes(r, router.Handlers{
		Items:    handlers.NewItemHandler(pager, items, cfg.Paging.DefaultSize),
		Votes:    handlers.NewVoteHandler(ledger),
		Profiles: handlers.NewProfileHandler(profileSvc),
		Health:   handlers.Health(gdb),
		Metrics:  metrics.Handler(reg),
	})

	return run(c.Context, cfg.HTTP.Addr(), r, log)
}

// newCaches builds the page and profile caches on the configured backend.
func newCaches(ctx context.Context, cfg *config.Config, log *zap.Logger, m *metrics.CacheMetrics) (cache.Cache[models.RankedPage], cache.Cache[models.Profile], func(), error) {
	ttl := cache.TTLPolicy{List: cfg.Cache.ListTTL, Profile: cfg.Cache.ProfileTTL}
	opts := []cache.Option{cache.WithMetrics(m), cache.WithLogger(log)}

	switch cfg.Cache.Backend {
	case config.CacheRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		log.Info("page cache backend", zap.String("backend", "redis"), zap.String("addr", cfg.Redis.Addr))
		return cache.NewRedis[models.RankedPage](client, ttl, opts...),
			cache.NewRedis[models.Profile](client, ttl, opts...),
			func() { _ = client.Close() }, nil

	default:
		pages, err := cache.NewLRU[models.RankedPage](cfg.Cache.Size, ttl, opts...)
		if err != nil {
			return nil, nil, nil, err
		}
		profiles, err := cache.NewLRU[models.Profile](cfg.Cache.Size, ttl, opts...)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("page cache backend", zap.String("backend", "memory"), zap.Int("size", cfg.Cache.Size))
		return pages, profiles, func() {}, nil
	}
}

// run serves until SIGINT/SIGTERM, then shuts down with a 5s grace period.
func run(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, groupCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.Info("movierama server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("server exiting")
	return nil
}
