package market

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/AdanD9/car-price-predictor/pkg/logger"
	"github.com/AdanD9/car-price-predictor/pkg/utils"
)

const (
	sourceRegistry = "NHTSA Vehicle API"
	sourceFallback = "Fallback Data"
)

var supportingSources = []string{"Market Analysis", "Industry Reports"}

// Snapshot assembles every statistics section concurrently. Each section
// degrades to static data on its own; if assembly itself fails the fully
// static snapshot is returned with Degraded set.
func (a *Aggregator) Snapshot(ctx context.Context) (snap Snapshot) {
	key := utils.CacheKey("snapshot")
	if v, ok := lookup[Snapshot](ctx, a, key); ok {
		return v
	}

	defer func() {
		if r := recover(); r != nil {
			snap = a.degradedSnapshot(fmt.Errorf("snapshot panic: %v", r))
		}
	}()

	snap, err := a.assemble(ctx)
	if err != nil {
		return a.degradedSnapshot(err)
	}
	if snap.live() {
		store(ctx, a, key, snap)
	}
	return snap
}

func (a *Aggregator) assemble(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		LastUpdated:  a.now(),
		SourceStatus: make(map[string]string, 5),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	setStatus := func(section, status string) {
		mu.Lock()
		snap.SourceStatus[section] = status
		mu.Unlock()
	}

	branches := map[string]func() error{
		"makes": func() error {
			makes, err := a.liveMakes(ctx)
			if err != nil {
				return err
			}
			snap.PopularMakes = makes
			return nil
		},
		"body_types": func() error {
			snap.BodyTypes = a.BodyTypes(ctx)
			return nil
		},
		"fuel_types": func() error {
			snap.FuelTypes = a.FuelTypes(ctx)
			return nil
		},
		"year_trends": func() error {
			snap.YearTrends = a.YearTrends(ctx)
			return nil
		},
	}

	for section, fn := range branches {
		wg.Add(1)
		go func(section string, fn func() error) {
			defer wg.Done()
			if err := guard(fn); err != nil {
				a.fallback(section, err)
				setStatus(section, statusFallback)
				return
			}
			setStatus(section, statusLive)
		}(section, fn)
	}
	wg.Wait()

	if snap.PopularMakes == nil {
		snap.PopularMakes = FallbackMakes()
	}
	if snap.BodyTypes == nil {
		snap.BodyTypes = BodyTypes()
	}
	if snap.FuelTypes == nil {
		snap.FuelTypes = FuelTypes()
	}
	if snap.YearTrends == nil {
		snap.YearTrends = YearTrends(a.now())
	}

	top := truncate(snap.PopularMakes, snapshotMakes)
	perMake := make([][]ModelEntry, len(top))
	failed := 0
	for i, m := range top {
		wg.Add(1)
		go func(i int, makeName string) {
			defer wg.Done()
			err := guard(func() error {
				models, err := a.liveModels(ctx, makeName)
				if err != nil {
					return err
				}
				perMake[i] = models
				return nil
			})
			if err != nil {
				a.fallback("models", err, zap.String("make", makeName))
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(i, m.Make)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("assemble snapshot: %w", err)
	}

	merged := make([]ModelEntry, 0, len(top)*maxModels)
	for _, models := range perMake {
		merged = append(merged, models...)
	}
	rankModels(merged)
	snap.PopularModels = truncate(merged, maxModels)

	switch {
	case failed == 0:
		snap.SourceStatus["models"] = statusLive
	case failed < len(top):
		snap.SourceStatus["models"] = statusPartial
	default:
		snap.SourceStatus["models"] = statusFallback
	}

	if snap.SourceStatus["makes"] == statusLive {
		snap.DataSources = append([]string{sourceRegistry}, supportingSources...)
	} else {
		snap.DataSources = append(append([]string(nil), supportingSources...), sourceFallback)
	}
	return snap, nil
}

func (a *Aggregator) degradedSnapshot(cause error) Snapshot {
	logger.Error("Statistics snapshot degraded", zap.Error(cause))
	a.fallback("snapshot", cause)
	return Snapshot{
		PopularMakes:  FallbackMakes(),
		PopularModels: []ModelEntry{},
		BodyTypes:     BodyTypes(),
		FuelTypes:     FuelTypes(),
		YearTrends:    YearTrends(a.now()),
		LastUpdated:   a.now(),
		DataSources:   []string{sourceFallback},
		Degraded:      true,
		Error:         "Live data temporarily unavailable",
	}
}

func (s Snapshot) live() bool {
	if s.Degraded {
		return false
	}
	for _, status := range s.SourceStatus {
		if status != statusLive {
			return false
		}
	}
	return true
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
