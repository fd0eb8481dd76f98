package market

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AdanD9/car-price-predictor/internal/cache"
	"github.com/AdanD9/car-price-predictor/internal/metrics"
	"github.com/AdanD9/car-price-predictor/internal/registry"
	"github.com/AdanD9/car-price-predictor/pkg/logger"
	"github.com/AdanD9/car-price-predictor/pkg/utils"
)

const (
	maxMakes       = 20
	maxModels      = 10
	snapshotMakes  = 5
	trendYears     = 10
	trendBasePrice = 25000.0
	depreciation   = 0.15
	milesPerYear   = 15000

	statusLive     = "live"
	statusFallback = "fallback"
	statusPartial  = "partial"
)

// Registry is the subset of the vehicle registry the aggregator reads.
type Registry interface {
	AllMakes(ctx context.Context) ([]registry.Make, error)
	ModelsForMake(ctx context.Context, makeName string) ([]registry.Model, error)
}

// SharedCache is an optional second cache tier shared between replicas.
type SharedCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Aggregator struct {
	registry Registry
	local    *cache.TTLCache
	shared   SharedCache
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Aggregator)

func WithSharedCache(s SharedCache) Option {
	return func(a *Aggregator) { a.shared = s }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func NewAggregator(reg Registry, local *cache.TTLCache, ttl time.Duration, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry: reg,
		local:    local,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Makes returns the top recognized makes ranked by market count.
// Registry failures yield the static fallback list.
func (a *Aggregator) Makes(ctx context.Context) []MakeEntry {
	makes, err := a.liveMakes(ctx)
	if err != nil {
		a.fallback("makes", err)
		return FallbackMakes()
	}
	return makes
}

// Models returns the top models for makeName ranked by market count.
// Registry failures yield the curated list for that make, possibly empty.
func (a *Aggregator) Models(ctx context.Context, makeName string) []ModelEntry {
	models, err := a.liveModels(ctx, makeName)
	if err != nil {
		a.fallback("models", err, zap.String("make", makeName))
		return FallbackModels(makeName)
	}
	return models
}

func (a *Aggregator) BodyTypes(ctx context.Context) []CategoryEntry {
	v, _ := cached(ctx, a, utils.CacheKey("body_types"), func(context.Context) ([]CategoryEntry, error) {
		return BodyTypes(), nil
	})
	return v
}

func (a *Aggregator) FuelTypes(ctx context.Context) []CategoryEntry {
	v, _ := cached(ctx, a, utils.CacheKey("fuel_types"), func(context.Context) ([]CategoryEntry, error) {
		return FuelTypes(), nil
	})
	return v
}

func (a *Aggregator) YearTrends(ctx context.Context) []YearTrend {
	v, _ := cached(ctx, a, utils.CacheKey("year_trends"), func(context.Context) ([]YearTrend, error) {
		return YearTrends(a.now()), nil
	})
	return v
}

// CacheStats reports the in-process cache counters.
func (a *Aggregator) CacheStats() cache.Stats {
	return a.local.Stats()
}

func (a *Aggregator) liveMakes(ctx context.Context) ([]MakeEntry, error) {
	return cached(ctx, a, utils.CacheKey("makes"), func(ctx context.Context) ([]MakeEntry, error) {
		raw, err := a.registry.AllMakes(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch makes: %w", err)
		}
		return rankedMakes(raw), nil
	})
}

func (a *Aggregator) liveModels(ctx context.Context, makeName string) ([]ModelEntry, error) {
	return cached(ctx, a, utils.CacheKey("models", makeName), func(ctx context.Context) ([]ModelEntry, error) {
		raw, err := a.registry.ModelsForMake(ctx, makeName)
		if err != nil {
			return nil, fmt.Errorf("fetch models for %s: %w", makeName, err)
		}
		return rankedModels(makeName, raw), nil
	})
}

func (a *Aggregator) fallback(operation string, err error, fields ...zap.Field) {
	metrics.FallbacksServed.WithLabelValues(operation).Inc()
	logger.Warn("Serving fallback market data",
		append([]zap.Field{zap.String("operation", operation), zap.Error(err)}, fields...)...)
}

func rankedMakes(raw []registry.Make) []MakeEntry {
	seen := make(map[string]bool, len(raw))
	makes := make([]MakeEntry, 0, maxMakes)
	for _, m := range raw {
		name, ok := CanonicalMake(m.Name)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		w := MakeWeight(name)
		makes = append(makes, MakeEntry{Make: name, Count: w.Count, AvgPrice: w.AvgPrice, Percentage: w.Percentage})
	}
	sort.SliceStable(makes, func(i, j int) bool {
		if makes[i].Count != makes[j].Count {
			return makes[i].Count > makes[j].Count
		}
		return makes[i].Make < makes[j].Make
	})
	return truncate(makes, maxMakes)
}

func rankedModels(makeName string, raw []registry.Model) []ModelEntry {
	parent := strings.TrimSpace(makeName)
	if canonical, ok := CanonicalMake(parent); ok {
		parent = canonical
	}
	seen := make(map[string]bool, len(raw))
	models := make([]ModelEntry, 0, len(raw))
	for _, m := range raw {
		name := strings.TrimSpace(m.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		w := ModelWeight(parent, name)
		models = append(models, ModelEntry{Model: name, Make: parent, Count: w.Count, AvgPrice: w.AvgPrice})
	}
	rankModels(models)
	return truncate(models, maxModels)
}

func rankModels(models []ModelEntry) {
	sort.SliceStable(models, func(i, j int) bool {
		if models[i].Count != models[j].Count {
			return models[i].Count > models[j].Count
		}
		if models[i].Make != models[j].Make {
			return models[i].Make < models[j].Make
		}
		return models[i].Model < models[j].Model
	})
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// YearTrends generates the last ten model years counting back from now.
func YearTrends(now time.Time) []YearTrend {
	trends := make([]YearTrend, trendYears)
	for i := range trends {
		trends[i] = YearTrend{
			Year:       now.Year() - i,
			Count:      max(200000+15000*i, 50000),
			AvgPrice:   math.Round(trendBasePrice * math.Pow(1-depreciation, float64(i))),
			AvgMileage: milesPerYear * (i + 1),
		}
	}
	return trends
}

// cached reads key from the local tier then the shared tier, and only calls
// load on a miss in both. Errors from load are returned and never cached.
func cached[T any](ctx context.Context, a *Aggregator, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := lookup[T](ctx, a, key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	store(ctx, a, key, v)
	return v, nil
}

func lookup[T any](ctx context.Context, a *Aggregator, key string) (T, bool) {
	var zero T
	if raw, ok := a.local.Get(key); ok {
		if v, ok := raw.(T); ok {
			metrics.CacheHits.WithLabelValues("local").Inc()
			logger.Debug("Market cache hit", zap.String("key", key), zap.String("tier", "local"))
			return v, true
		}
	}
	metrics.CacheMisses.WithLabelValues("local").Inc()

	if a.shared == nil {
		return zero, false
	}
	var v T
	found, err := a.shared.GetJSON(ctx, key, &v)
	if err != nil {
		logger.Warn("Shared cache read failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if !found {
		metrics.CacheMisses.WithLabelValues("shared").Inc()
		return zero, false
	}
	metrics.CacheHits.WithLabelValues("shared").Inc()
	a.local.Set(key, v)
	return v, true
}

func store[T any](ctx context.Context, a *Aggregator, key string, v T) {
	a.local.Set(key, v)
	if a.shared == nil {
		return
	}
	if err := a.shared.SetJSON(ctx, key, v, a.ttl); err != nil {
		logger.Warn("Shared cache write failed", zap.String("key", key), zap.Error(err))
	}
}
