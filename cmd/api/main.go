package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AdanD9/car-price-predictor/internal/api"
	"github.com/AdanD9/car-price-predictor/internal/api/handlers"
	"github.com/AdanD9/car-price-predictor/internal/assistant"
	"github.com/AdanD9/car-price-predictor/internal/cache"
	"github.com/AdanD9/car-price-predictor/internal/cache/redis"
	"github.com/AdanD9/car-price-predictor/internal/encoder"
	"github.com/AdanD9/car-price-predictor/internal/market"
	"github.com/AdanD9/car-price-predictor/internal/metrics"
	"github.com/AdanD9/car-price-predictor/internal/middleware/validation"
	"github.com/AdanD9/car-price-predictor/internal/registry"
	"github.com/AdanD9/car-price-predictor/internal/scoring"
	"github.com/AdanD9/car-price-predictor/internal/vin"
	"github.com/AdanD9/car-price-predictor/pkg/config"
	appLogger "github.com/AdanD9/car-price-predictor/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Car Price Predictor API",
		zap.String("scoring_mode", cfg.Scoring.Mode),
	)

	metrics.Init()

	reference, _ := cfg.Encoder.Reference()
	enc := encoder.New(reference)

	var scorer scoring.Scorer
	switch cfg.Scoring.Mode {
	case "model":
		scorer = scoring.NewModelScorer(cfg.Scoring.ModelURL, time.Duration(cfg.Scoring.TimeoutSec)*time.Second, nil)
		if cfg.Scoring.ModelURL == "" {
			appLogger.Warn("Model scoring selected without scoring.modelURL; predictions will return 503")
		}
	default:
		scorer = scoring.NewHeuristicScorer(cfg.Scoring.MinPrice, cfg.Scoring.Jitter, nil)
	}
	predictor := scoring.NewPredictor(enc, scorer, cfg.Scoring.RMSE, cfg.Scoring.MinPrice)

	registryClient := registry.New(nil, registry.Config{
		BaseURL:         cfg.Registry.BaseURL,
		Timeout:         time.Duration(cfg.Registry.TimeoutSec) * time.Second,
		MaxAttempts:     cfg.Registry.MaxAttempts,
		BreakerFailures: uint32(cfg.Registry.BreakerFailures),
		BreakerTimeout:  time.Duration(cfg.Registry.BreakerTimeoutSec) * time.Second,
	})

	var opts []market.Option
	var pinger handlers.Pinger
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing with in-process cache only", zap.Error(err))
		} else {
			defer redisClient.Close()
			opts = append(opts, market.WithSharedCache(redisClient))
			pinger = redisClient
		}
	}

	janitorCtx, stopJanitors := context.WithCancel(context.Background())
	defer stopJanitors()

	marketCache := cache.NewTTLCache(cfg.Cache.TTL(), cfg.Cache.MaxEntries)
	go marketCache.Janitor(janitorCtx, cfg.Cache.TTL())
	aggregator := market.NewAggregator(registryClient, marketCache, cfg.Cache.TTL(), opts...)

	vinCache := cache.NewTTLCache(cfg.Cache.TTL(), cfg.Cache.MaxEntries)
	go vinCache.Janitor(janitorCtx, cfg.Cache.TTL())
	vinService := vin.NewService(registryClient, vinCache)

	assistantCfg := assistant.Config{
		Model:       cfg.Assistant.Model,
		BaseURL:     cfg.Assistant.BaseURL,
		Temperature: cfg.Assistant.Temperature,
		MaxTokens:   cfg.Assistant.MaxTokens,
		MaxAttempts: cfg.Assistant.MaxAttempts,
	}
	if cfg.Assistant.Enabled {
		assistantCfg.APIKey = cfg.Assistant.APIKey
	}
	marketAssistant := assistant.New(assistantCfg, aggregator)

	app := api.NewApp(cfg.Server)
	api.Register(app, api.Handlers{
		Health:     handlers.NewHealthHandler(scorer, aggregator, pinger),
		Prediction: handlers.NewPredictionHandler(predictor),
		Statistics: handlers.NewStatisticsHandler(aggregator),
		VIN:        handlers.NewVINHandler(vinService),
		Assistant:  handlers.NewAssistantHandler(marketAssistant),
	}, validation.Bounds{
		MinYear:    cfg.Encoder.MinYear,
		MaxYear:    cfg.Encoder.MaxYear,
		MaxMileage: cfg.Encoder.MaxMileage,
	}, appLogger.GetLogger())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
