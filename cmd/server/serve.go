package main

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rj-tabelon/rentalrabbit/internal/api"
	"github.com/rj-tabelon/rentalrabbit/internal/auth"
	"github.com/rj-tabelon/rentalrabbit/internal/cache"
	"github.com/rj-tabelon/rentalrabbit/internal/config"
	"github.com/rj-tabelon/rentalrabbit/internal/db"
	"github.com/rj-tabelon/rentalrabbit/internal/events"
	"github.com/rj-tabelon/rentalrabbit/internal/geocode"
	"github.com/rj-tabelon/rentalrabbit/internal/observ"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
	"github.com/rj-tabelon/rentalrabbit/internal/repository/postgres"
	"github.com/rj-tabelon/rentalrabbit/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Config and logger
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 2. Postgres, migrated if asked
	// ---------------------------------------------------------------
	if cfg.AutoMigrate {
		if err := db.MigrateUp(cfg.DatabaseURL, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	// ---------------------------------------------------------------
	// 3. Token verification
	// ---------------------------------------------------------------
	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return err
	}

	// ---------------------------------------------------------------
	// 4. Outbound collaborators: object store, geocoder (+ cache)
	// ---------------------------------------------------------------
	var uploader storage.Uploader
	if cfg.S3.Bucket != "" {
		s3Uploader, err := storage.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("create s3 uploader: %w", err)
		}
		uploader = s3Uploader
	} else {
		logger.Warn("S3_BUCKET_NAME not set, listings with photos will be rejected")
	}

	var geoOpts []geocode.Option
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisCache.Close()
		geoOpts = append(geoOpts, geocode.WithCache(redisCache))
	}
	geocoder := geocode.NewGeocoder(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, logger, geoOpts...)

	// ---------------------------------------------------------------
	// 5. Repositories, assigned to the interfaces they satisfy
	// ---------------------------------------------------------------
	pool := database.Pool()
	var (
		managerRepo     repository.ManagerRepository     = postgres.NewManagerStore(pool)
		tenantRepo      repository.TenantRepository      = postgres.NewTenantStore(pool)
		propertyRepo    repository.PropertyRepository    = postgres.NewPropertyStore(pool)
		leaseRepo       repository.LeaseRepository       = postgres.NewLeaseStore(pool)
		applicationRepo repository.ApplicationRepository = postgres.NewApplicationStore(pool)
	)

	// ---------------------------------------------------------------
	// 6. Event hub and HTTP server
	// ---------------------------------------------------------------
	hub := events.NewHub(logger)
	go hub.Run(ctx)

	resp := api.NewResponder(logger, cfg.ExposeErrors)
	router := api.NewRouter(api.Handlers{
		Managers:     api.NewManagerHandler(managerRepo, propertyRepo, resp),
		Tenants:      api.NewTenantHandler(tenantRepo, propertyRepo, resp),
		Properties:   api.NewPropertyHandler(propertyRepo, uploader, geocoder, resp),
		Applications: api.NewApplicationHandler(applicationRepo, hub, resp),
		Leases:       api.NewLeaseHandler(leaseRepo, resp),
		DB:           database,
		Hub:          hub,
	}, verifier, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting RentalRabbit",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newVerifier(cfg config.AuthConfig) (*auth.Verifier, error) {
	var publicKey *rsa.PublicKey
	if cfg.JWTPublicKeyFile != "" {
		key, err := auth.LoadRSAPublicKey(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		publicKey = key
	}
	v, err := auth.NewVerifier(cfg.JWTSecret, publicKey)
	if err != nil {
		return nil, fmt.Errorf("create token verifier: %w", err)
	}
	return v, nil
}
