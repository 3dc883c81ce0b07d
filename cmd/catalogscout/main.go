package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/config"
	logpkg "github.com/quarrydata/catalogscout/internal/logger"
	"github.com/quarrydata/catalogscout/internal/metrics"
	catalogrepo "github.com/quarrydata/catalogscout/internal/repository/catalog"
	sessionrepo "github.com/quarrydata/catalogscout/internal/repository/session"
	valuesrepo "github.com/quarrydata/catalogscout/internal/repository/values"
	chiTransport "github.com/quarrydata/catalogscout/internal/transport/chi"
	"github.com/quarrydata/catalogscout/internal/transport/cohere"
	openaiTransport "github.com/quarrydata/catalogscout/internal/transport/openai"
	cataloguc "github.com/quarrydata/catalogscout/internal/usecase/catalog"
	enrichuc "github.com/quarrydata/catalogscout/internal/usecase/enrich"
	filteruc "github.com/quarrydata/catalogscout/internal/usecase/filter"
	rankuc "github.com/quarrydata/catalogscout/internal/usecase/rank"
	valuesuc "github.com/quarrydata/catalogscout/internal/usecase/values"
	"github.com/quarrydata/catalogscout/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting catalogscout API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("redis_addrs", cfg.Redis.Addrs),
	)

	ctx := context.Background()

	// Redis carries both the stored-value vector index and agent session state.
	redisClient, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: cfg.Redis.Addrs,
		Password:    cfg.Redis.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create redis client", zap.Error(err))
	}
	defer redisClient.Close()

	readyTimeout := time.Duration(cfg.Redis.ReadinessTimeout) * time.Second
	if err := waitForRedis(ctx, redisClient, readyTimeout); err != nil {
		logger.Fatal("Redis not ready", zap.Error(err))
	}
	logger.Info("Connected to redis")

	catalogStore, err := catalogrepo.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	defer catalogStore.Close()
	logger.Info("Connected to postgres")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:   cfg.Completion.APIKey,
		BaseURL:  cfg.Completion.BaseURL,
		Model:    cfg.Completion.Model,
		Provider: "completion",
		Logger:   logger,
	})

	reranker := cohere.New(cfg.Rerank.BaseURL, cfg.Rerank.APIKey,
		cohere.WithModel(cfg.Rerank.Model),
		cohere.WithLogger(logger),
	)

	valueIndex := valuesrepo.New(redisClient)
	sessionStore := sessionrepo.New(redisClient, time.Duration(cfg.Session.TTLHours)*time.Hour)

	valueFinder := valuesuc.New(embedder, valueIndex, logger)
	ranker := rankuc.New(reranker, logger)
	filterer := filteruc.New(completer, logger)
	enricher := enrichuc.New(logger)

	pipeline := cataloguc.New(
		catalogStore,
		sessionStore,
		valueFinder,
		ranker,
		filterer,
		enricher,
		logger,
	)

	server := chiTransport.NewServer(pipeline, logger)
	handler := server.Router(cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// waitForRedis pings until the server answers or the timeout elapses.
func waitForRedis(ctx context.Context, client rueidis.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Do(pingCtx, client.B().Ping().Build()).Error()
		cancel()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("redis not ready after %s: %w", timeout, err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}
