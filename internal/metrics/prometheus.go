package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PredictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "car_price_prediction_duration_seconds",
			Help:    "Prediction latency including encoding and scoring",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"scorer"},
	)

	PredictionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_price_prediction_total",
			Help: "Predictions served by outcome",
		},
		[]string{"scorer", "status"},
	)

	PredictedPrice = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "car_price_predicted_price_usd",
			Help:    "Distribution of predicted prices",
			Buckets: []float64{2500, 5000, 10000, 15000, 20000, 30000, 50000, 80000},
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_price_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"tier"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_price_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"tier"},
	)

	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_price_upstream_requests_total",
			Help: "Vehicle registry requests by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "car_price_upstream_duration_seconds",
			Help:    "Vehicle registry request latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)

	FallbacksServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_price_fallbacks_total",
			Help: "Static fallback data served in place of live data",
		},
		[]string{"operation"},
	)

	AssistantRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_price_assistant_requests_total",
			Help: "Market assistant requests by outcome",
		},
		[]string{"status"},
	)

	AssistantTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_price_assistant_tokens_total",
			Help: "Tokens used by the market assistant",
		},
		[]string{"model", "type"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "car_price_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(PredictionDuration)
		prometheus.MustRegister(PredictionTotal)
		prometheus.MustRegister(PredictedPrice)
		prometheus.MustRegister(CacheHits)
		prometheus.MustRegister(CacheMisses)
		prometheus.MustRegister(UpstreamRequests)
		prometheus.MustRegister(UpstreamDuration)
		prometheus.MustRegister(FallbacksServed)
		prometheus.MustRegister(AssistantRequests)
		prometheus.MustRegister(AssistantTokens)
		prometheus.MustRegister(BreakerState)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
