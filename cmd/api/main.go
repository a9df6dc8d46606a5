// Command api runs the HTTP server for the note organization backend.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appConfig "messynotes-backend/internal/config"
	"messynotes-backend/internal/embedding"
	"messynotes-backend/internal/handlers"
	"messynotes-backend/internal/index"
	"messynotes-backend/internal/infrastructure/cache"
	"messynotes-backend/internal/repository/ddb"
	"messynotes-backend/internal/service/organizer"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A missing .env is fine; the environment itself takes precedence.
	_ = godotenv.Load()

	cfg := appConfig.LoadConfig()

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal("failed to load AWS configuration", zap.Error(err))
	}
	repo := ddb.NewRepository(dynamodb.NewFromConfig(awsCfg), cfg.TableName, cfg.IndexName)

	var responseCache *cache.MemoryCache
	if cfg.Features.EnableCaching {
		responseCache = cache.NewMemoryCache(cfg.CacheTTL, logger)
	}

	svc := organizer.NewService(
		repo,
		index.NewSimilarityIndex(),
		newEmbeddingProvider(cfg, logger),
		responseCache,
		cfg.Features,
		logger,
	)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ArchiveSweepSchedule, func() {
		count, err := svc.ArchiveStaleAllUsers(ctx)
		if err != nil {
			logger.Error("archival sweep failed", zap.Error(err))
			return
		}
		logger.Info("archival sweep completed", zap.Int("archived", count))
	}); err != nil {
		logger.Fatal("invalid archive sweep schedule",
			zap.String("schedule", cfg.ArchiveSweepSchedule),
			zap.Error(err),
		)
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := handlers.NewHandler(svc, logger)
	router := handlers.NewRouter(handler, handlers.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		JWTIssuer:      cfg.JWTIssuer,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("embedding_provider", cfg.Embedding.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newEmbeddingProvider(cfg appConfig.Config, logger *zap.Logger) embedding.Provider {
	if cfg.Embedding.Provider == "openai" {
		return embedding.NewOpenAIClient(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model)
	}
	logger.Warn("using deterministic mock embeddings; set OPENAI_API_KEY for real vectors")
	return embedding.NewMockProvider()
}
