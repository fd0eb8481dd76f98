package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/AdanD9/car-price-predictor/internal/api/handlers"
	"github.com/AdanD9/car-price-predictor/internal/metrics"
	"github.com/AdanD9/car-price-predictor/internal/middleware/security"
	"github.com/AdanD9/car-price-predictor/internal/middleware/validation"
	"github.com/AdanD9/car-price-predictor/pkg/config"
)

type Handlers struct {
	Health     *handlers.HealthHandler
	Prediction *handlers.PredictionHandler
	Statistics *handlers.StatisticsHandler
	VIN        *handlers.VINHandler
	Assistant  *handlers.AssistantHandler
}

// NewApp builds the fiber app with the shared middleware stack.
func NewApp(cfg config.ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "car-price-predictor",
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit,
	})

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{IsDevelopment: cfg.IsDevelopment}))
	app.Use(validation.ContentType(fiber.MIMEApplicationJSON))

	return app
}

// Register mounts every route under /api/v1 and again at the root for
// clients of the unversioned paths.
func Register(app *fiber.App, h Handlers, bounds validation.Bounds, log *zap.Logger) {
	app.Get("/metrics", metrics.MetricsHandler())

	for _, router := range []fiber.Router{app.Group("/api/v1"), app} {
		router.Get("/", h.Health.Root)
		router.Get("/health", h.Health.Health)

		router.Post("/predict", validation.Prediction(bounds, log), h.Prediction.Predict)
		router.Get("/models/info", h.Prediction.ModelInfo)

		stats := router.Group("/statistics")
		stats.Get("/overview", h.Statistics.Overview)
		stats.Get("/makes", h.Statistics.Makes)
		stats.Get("/models/:make", h.Statistics.Models)
		stats.Get("/trends", h.Statistics.Trends)
		stats.Get("/data-sources", h.Statistics.DataSources)

		router.Post("/vin/lookup", validation.VIN(), h.VIN.Lookup)
		router.Post("/assistant/chat", validation.Question(2000, log), h.Assistant.Chat)
	}
}
