// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Shivanand-hulikatti/unihub-events/internal/config"
	"github.com/Shivanand-hulikatti/unihub-events/internal/database"
	"github.com/Shivanand-hulikatti/unihub-events/internal/embedding"
	"github.com/Shivanand-hulikatti/unihub-events/internal/handler"
	"github.com/Shivanand-hulikatti/unihub-events/internal/notify"
	"github.com/Shivanand-hulikatti/unihub-events/internal/repository"
	"github.com/Shivanand-hulikatti/unihub-events/internal/service"
	"github.com/Shivanand-hulikatti/unihub-events/internal/similarity"
)

func main() {
	ctx := context.Background()

	// ── 1. Configuration and logging ──────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	// ── 2. Store ──────────────────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}
	defer closeStore()

	if cfg.SeedUsers != "" {
		users, err := service.ParseSeedUsers(cfg.SeedUsers)
		if err != nil {
			logger.Fatal("seed users", zap.Error(err))
		}
		added, err := service.SeedUsers(ctx, store, users)
		if err != nil {
			logger.Fatal("seed users", zap.Error(err))
		}
		logger.Info("seeded users", zap.Int("added", added), zap.Int("listed", len(users)))
	}

	// ── 3. Redis, embeddings and notifications ───────────────────────────
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("parse redis url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("connect to redis", zap.Error(err))
		}
		logger.Info("connected to redis")
	}

	embedder := newEmbedder(cfg, redisClient, logger)

	sender, err := newSender(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("notifications", zap.Error(err))
	}
	dispatcher := notify.NewDispatcher(sender, cfg.Notify.Timeout, logger)

	// ── 4. Wire up layers ────────────────────────────────────────────────
	eventSvc := service.NewEventService(store, embedder, dispatcher, logger)
	collegeSvc := service.NewCollegeService(store, embedder, logger)
	router := handler.NewRouter(
		handler.NewEventHandler(eventSvc, logger),
		handler.NewCollegeHandler(collegeSvc, logger),
		logger,
		cfg.Server.AllowedOrigins,
	)

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logger.Warn("pending notifications dropped", zap.Error(err))
	}
	logger.Info("server stopped")
}

func initLogger(cfg *config.Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development() {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return logger
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	pool, err := database.NewPool(ctx, cfg.DB, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("connected to postgres")
	return repository.NewPGStore(pool), pool.Close, nil
}

func newEmbedder(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) embedding.Provider {
	var (
		provider embedding.Provider
		model    string
	)
	switch cfg.Embedder {
	case config.EmbedderHash:
		h := embedding.NewHash(similarity.Dimensions)
		provider, model = h, h.Model()
	default:
		o := embedding.NewOpenAI(embedding.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout,
			Retries: cfg.OpenAI.Retries,
		})
		provider, model = o, o.Model()
	}

	if redisClient == nil {
		return provider
	}
	return embedding.NewCached(provider, redisClient, model, cfg.Redis.EmbeddingTTL, logger)
}

func newSender(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (notify.Sender, error) {
	switch cfg.Notify.Driver {
	case config.NotifySMTP:
		return notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.Notify.SMTP.Host,
			Port:     cfg.Notify.SMTP.Port,
			Username: cfg.Notify.SMTP.Username,
			Password: cfg.Notify.SMTP.Password,
			From:     cfg.Notify.From,
		}), nil
	case config.NotifyRedis:
		if redisClient == nil {
			return nil, errors.New("NOTIFY_DRIVER=redis needs REDIS_URL")
		}
		return notify.NewRedisPublisher(redisClient, cfg.Redis.Channel), nil
	default:
		return notify.NewLogSender(logger), nil
	}
}
