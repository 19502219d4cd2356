// Package main runs the fooder admin API server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fooder/backend/config"
	"github.com/fooder/backend/internal/app"
	"github.com/fooder/backend/internal/auth"
	"github.com/fooder/backend/internal/menu"
	"github.com/fooder/backend/internal/pii"
	"github.com/fooder/backend/internal/schedules"
	"github.com/fooder/backend/internal/users"
	"github.com/fooder/backend/internal/worker"
	"github.com/fooder/backend/pkg/database"
	"github.com/fooder/backend/pkg/queue"
	"github.com/fooder/backend/pkg/redis"
	"github.com/fooder/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	if err := database.Migrate(cfg.Database.DSN(), database.DirectionUp, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var images menu.ImageStore
	if cfg.AWS.MenuImagesBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MenuImagesBucket:     cfg.AWS.MenuImagesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("menu images disabled", zap.Error(err))
		} else {
			images = s3Client
		}
	}

	sealer, err := app.NewSealer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("pii sealer", zap.Error(err))
	}
	verifier, err := app.NewVerifier(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("token verifier", zap.Error(err))
	}
	admins := pii.ParseAdminAllowList(cfg.PII.AdminEmailHashes)
	logger.Info("admin allow-list loaded", zap.Int("entries", admins.Len()))

	// Users and provisioning
	userRepo := users.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	provisioner := users.NewProvisioner(sealer, admins, cfg.Tenant.ID)
	userHandler := users.NewHandler(userRepo, sealer, provisioner, jobQueue, logger)

	// Menu catalog
	menuRepo := menu.NewRepository(pool)
	menuHandler := menu.NewHandler(menu.NewService(menuRepo, images, logger), logger)

	// Schedules
	scheduleRepo := schedules.NewRepository(pool)
	scheduleHandler := schedules.NewHandler(schedules.NewEngine(scheduleRepo, menuRepo, logger), logger)

	router := app.NewRouter(app.RouterDeps{
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		HookSecret:  cfg.Auth.HookSecret,
		Resolver:    auth.NewResolver(verifier, userRepo, cfg.Tenant.ID),
		Users:       userHandler,
		Menu:        menuHandler,
		Schedules:   scheduleHandler,
		Checks: map[string]app.HealthCheck{
			"postgres": pool.Ping,
			"redis":    rdb.Health,
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (user provisioning)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Worker.InProcess {
		processor := worker.NewProvisioningProcessor(jobQueue, users.NewRecorder(userRepo, logger), logger)
		go processor.Run(workerCtx)
		logger.Info("provisioning worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("tenant", cfg.Tenant.ID))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
