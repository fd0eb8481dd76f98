package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/AdanD9/car-price-predictor/internal/cache"
	"github.com/AdanD9/car-price-predictor/internal/scoring"
)

type Pinger interface {
	Health(ctx context.Context) error
}

type CacheStatter interface {
	CacheStats() cache.Stats
}

type HealthHandler struct {
	scorer scoring.Scorer
	cache  CacheStatter
	redis  Pinger
	now    func() time.Time
}

// NewHealthHandler builds the liveness handlers. redis may be nil when the
// shared cache tier is disabled.
func NewHealthHandler(scorer scoring.Scorer, c CacheStatter, redis Pinger) *HealthHandler {
	return &HealthHandler{scorer: scorer, cache: c, redis: redis, now: time.Now}
}

func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":      "Car Price Predictor API",
		"status":       "running",
		"model_loaded": h.scorer.Available(),
	})
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	stats := h.cache.CacheStats()

	redisStatus := "disabled"
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		redisStatus = "ok"
		if err := h.redis.Health(ctx); err != nil {
			redisStatus = "unreachable"
		}
	}

	return c.JSON(fiber.Map{
		"status":       "healthy",
		"model_loaded": h.scorer.Available(),
		"scorer":       h.scorer.Info().ModelType,
		"timestamp":    h.now(),
		"cache": fiber.Map{
			"size":      stats.Size,
			"hits":      stats.Hits,
			"misses":    stats.Misses,
			"evictions": stats.Evictions,
			"redis":     redisStatus,
		},
	})
}
