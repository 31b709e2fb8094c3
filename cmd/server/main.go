package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayush/library-api/internal/auth"
	"github.com/ayush/library-api/internal/catalog"
	"github.com/ayush/library-api/internal/config"
	"github.com/ayush/library-api/internal/logging"
	"github.com/ayush/library-api/internal/server"
	"github.com/ayush/library-api/internal/store"
	"github.com/ayush/library-api/internal/store/memstore"
	"github.com/ayush/library-api/internal/validation"
)

type repository interface {
	auth.MemberStore
	catalog.BookStore
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("library api stopped")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	ctx := context.Background()

	// ── Store ────────────────────────────────────────────────
	var repo repository
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if cfg.MigrateOnStart {
			if err := store.Migrate(cfg.PostgresDSN); err != nil {
				return fmt.Errorf("postgres migrate: %w", err)
			}
		}
		pool, err := store.NewPool(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer pool.Close()
		repo = store.NewPostgresStore(pool)
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		repo = memstore.New()
	}

	// ── Token revocation ─────────────────────────────────────
	var revoked auth.RevocationList
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer rdb.Close()
		revoked = auth.NewRedisRevocationList(rdb)
	} else {
		revoked = memstore.NewRevocationList()
	}

	// ── Services and handlers ────────────────────────────────
	v := validation.New()
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	authSvc := auth.NewService(repo, tokens, revoked, v, cfg.BcryptCost, logger)
	catalogSvc := catalog.NewService(repo, v, logger)

	router := server.NewRouter(server.Deps{
		Auth:           auth.NewHandler(authSvc, logger),
		Catalog:        catalog.NewHandler(catalogSvc, logger),
		Authenticator:  authSvc,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("library api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
