package handlers

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/AdanD9/car-price-predictor/internal/market"
)

// Market is the read side of the market data aggregator.
type Market interface {
	Snapshot(ctx context.Context) market.Snapshot
	Makes(ctx context.Context) []market.MakeEntry
	Models(ctx context.Context, makeName string) []market.ModelEntry
	YearTrends(ctx context.Context) []market.YearTrend
}

type StatisticsHandler struct {
	market Market
	now    func() time.Time
}

func NewStatisticsHandler(m Market) *StatisticsHandler {
	return &StatisticsHandler{market: m, now: time.Now}
}

func (h *StatisticsHandler) Overview(c *fiber.Ctx) error {
	return c.JSON(h.market.Snapshot(c.Context()))
}

func (h *StatisticsHandler) Makes(c *fiber.Ctx) error {
	makes := h.market.Makes(c.Context())
	return c.JSON(fiber.Map{
		"makes": makes,
		"count": len(makes),
	})
}

func (h *StatisticsHandler) Models(c *fiber.Ctx) error {
	makeName, err := url.PathUnescape(c.Params("make"))
	if err != nil || strings.TrimSpace(makeName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "make is required",
		})
	}

	models := h.market.Models(c.Context(), makeName)
	return c.JSON(fiber.Map{
		"make":   strings.TrimSpace(makeName),
		"models": models,
		"count":  len(models),
	})
}

func (h *StatisticsHandler) Trends(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"year_trends":  h.market.YearTrends(c.Context()),
		"last_updated": h.now(),
	})
}

func (h *StatisticsHandler) DataSources(c *fiber.Ctx) error {
	return c.JSON(market.Catalogue(h.now()))
}
