package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AdanD9/car-price-predictor/internal/cache"
	rediscache "github.com/AdanD9/car-price-predictor/internal/cache/redis"
	"github.com/AdanD9/car-price-predictor/internal/registry"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) AllMakes(ctx context.Context) ([]registry.Make, error) {
	args := m.Called(ctx)
	makes, _ := args.Get(0).([]registry.Make)
	return makes, args.Error(1)
}

func (m *mockRegistry) ModelsForMake(ctx context.Context, makeName string) ([]registry.Model, error) {
	args := m.Called(ctx, makeName)
	models, _ := args.Get(0).([]registry.Model)
	return models, args.Error(1)
}

var errUpstream = errors.New("registry unavailable")

func makes(names ...string) []registry.Make {
	out := make([]registry.Make, len(names))
	for i, n := range names {
		out[i] = registry.Make{ID: i + 1, Name: n}
	}
	return out
}

func models(makeName string, names ...string) []registry.Model {
	out := make([]registry.Model, len(names))
	for i, n := range names {
		out[i] = registry.Model{MakeName: makeName, ID: i + 1, Name: n}
	}
	return out
}

func newTestAggregator(reg Registry, opts ...Option) *Aggregator {
	return NewAggregator(reg, cache.NewTTLCache(time.Hour, 100), time.Hour, opts...)
}

func TestMakes_FiltersDedupesAndRanks(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("AllMakes", mock.Anything).
		Return(makes("TOYOTA", "toyota", "Honda", "XYZ MOTORS", " bmw ", "TESLA", "ALFA ROMEO", ""), nil).Once()

	got := newTestAggregator(reg).Makes(context.Background())

	assert.Equal(t, []MakeEntry{
		{Make: "Toyota", Count: 245678, AvgPrice: 18500, Percentage: 12.3},
		{Make: "Honda", Count: 198432, AvgPrice: 17800, Percentage: 9.9},
		{Make: "BMW", Count: 98765, AvgPrice: 28900, Percentage: 4.9},
		{Make: "Tesla", Count: 43210, AvgPrice: 41200, Percentage: 2.2},
		{Make: "Alfa Romeo", Count: 25000, AvgPrice: 20000, Percentage: 2.0},
	}, got)
	reg.AssertExpectations(t)
}

func TestMakes_TruncatesToTwenty(t *testing.T) {
	var all []string
	for lower := range recognizedMakes {
		all = append(all, lower)
	}
	reg := new(mockRegistry)
	reg.On("AllMakes", mock.Anything).Return(makes(all...), nil)

	got := newTestAggregator(reg).Makes(context.Background())

	require.Len(t, got, 20)
	assert.Equal(t, "Toyota", got[0].Make)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Count, got[i].Count)
	}
}

func TestMakes_CachedWithinTTL(t *testing.T) {
	now := time.Date(2025, 7, 16, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	reg := new(mockRegistry)
	reg.On("AllMakes", mock.Anything).Return(makes("Honda", "Ford"), nil)

	agg := NewAggregator(reg, cache.NewTTLCache(time.Hour, 100, cache.WithClock(clock)), time.Hour)
	first := agg.Makes(context.Background())
	now = now.Add(59 * time.Minute)
	second := agg.Makes(context.Background())

	assert.Equal(t, first, second)
	reg.AssertNumberOfCalls(t, "AllMakes", 1)

	now = now.Add(2 * time.Minute)
	agg.Makes(context.Background())
	reg.AssertNumberOfCalls(t, "AllMakes", 2)
}

func TestMakes_UpstreamErrorServesFallbackInTableOrder(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := registry.New(nil, registry.Config{BaseURL: srv.URL, DisableBreaker: true})
	agg := newTestAggregator(client)

	got := agg.Makes(context.Background())
	require.Len(t, got, 10)
	assert.Equal(t, fallbackMakes, got)
	assert.Equal(t, "Hyundai", got[7].Make, "fallback keeps table order")

	agg.Makes(context.Background())
	assert.Equal(t, int32(2), calls.Load(), "fallback results are not cached")
}

func TestModels_FailingMakeDoesNotTripOtherSources(t *testing.T) {
	var fordCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/getmodelsformake/ford":
			fordCalls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		case "/getallmakes":
			_, _ = w.Write([]byte(`{"Results":[{"Make_ID":1,"Make_Name":"KIA"},{"Make_ID":2,"Make_Name":"HONDA"}]}`))
		case "/getmodelsformake/Honda":
			_, _ = w.Write([]byte(`{"Results":[{"Make_ID":2,"Make_Name":"HONDA","Model_ID":9,"Model_Name":"X"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := registry.New(nil, registry.Config{BaseURL: srv.URL, BreakerFailures: 5, BreakerTimeout: time.Minute})
	agg := newTestAggregator(client)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		ford := agg.Models(ctx, "ford")
		require.NotEmpty(t, ford)
		assert.Equal(t, "F-150", ford[0].Model)
	}
	assert.Equal(t, int32(5), fordCalls.Load(), "ford breaker opens after five failures")

	got := agg.Makes(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, "Honda", got[0].Make)
	assert.Equal(t, "Kia", got[1].Make)

	assert.Equal(t, []ModelEntry{{Model: "X", Make: "Honda", Count: 25000, AvgPrice: 20000}}, agg.Models(ctx, "Honda"))
}

func TestMakes_FallbackIsACopy(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("AllMakes", mock.Anything).Return(nil, errUpstream)

	got := newTestAggregator(reg).Makes(context.Background())
	got[0].Make = "Mutated"

	assert.Equal(t, "Toyota", FallbackMakes()[0].Make)
}

func TestModels_DedupesAndWeights(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("ModelsForMake", mock.Anything, "toyota").
		Return(models("TOYOTA", "Corolla", "Camry", "Camry", " ", "Mirai"), nil).Once()

	got := newTestAggregator(reg).Models(context.Background(), "toyota")

	assert.Equal(t, []ModelEntry{
		{Model: "Camry", Make: "Toyota", Count: 89450, AvgPrice: 24800},
		{Model: "Corolla", Make: "Toyota", Count: 72150, AvgPrice: 19600},
		{Model: "Mirai", Make: "Toyota", Count: 25000, AvgPrice: 20000},
	}, got)
}

func TestModels_TruncatesToTen(t *testing.T) {
	names := make([]string, 15)
	for i := range names {
		names[i] = "Model " + strconv.Itoa(i)
	}
	reg := new(mockRegistry)
	reg.On("ModelsForMake", mock.Anything, "Kia").Return(models("Kia", names...), nil)

	got := newTestAggregator(reg).Models(context.Background(), "Kia")
	assert.Len(t, got, 10)
}

func TestModels_CacheKeyIgnoresCase(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("ModelsForMake", mock.Anything, "Honda").Return(models("Honda", "Civic"), nil).Once()

	agg := newTestAggregator(reg)
	agg.Models(context.Background(), "Honda")
	got := agg.Models(context.Background(), "HONDA ")

	require.Len(t, got, 1)
	assert.Equal(t, "Civic", got[0].Model)
	reg.AssertExpectations(t)
}

func TestModels_FailureServesCuratedList(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("ModelsForMake", mock.Anything, mock.Anything).Return(nil, errUpstream)
	agg := newTestAggregator(reg)

	toyota := agg.Models(context.Background(), "Toyota")
	require.NotEmpty(t, toyota)
	assert.Equal(t, "Camry", toyota[0].Model)
	assert.Equal(t, "Toyota", toyota[0].Make)

	assert.Empty(t, agg.Models(context.Background(), "Lotus"))
}

func TestSnapshot_OneModelsFetchFails(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("AllMakes", mock.Anything).
		Return(makes("Toyota", "Honda", "Ford", "Chevrolet", "Nissan", "Hyundai"), nil)
	reg.On("ModelsForMake", mock.Anything, "Toyota").Return(models("Toyota", "Camry", "Corolla"), nil)
	reg.On("ModelsForMake", mock.Anything, "Honda").Return(nil, errUpstream)
	reg.On("ModelsForMake", mock.Anything, "Ford").Return(models("Ford", "F-150"), nil)
	reg.On("ModelsForMake", mock.Anything, "Chevrolet").Return(models("Chevrolet", "Silverado", "Malibu"), nil)
	reg.On("ModelsForMake", mock.Anything, "Nissan").Return(models("Nissan", "Altima"), nil)

	snap := newTestAggregator(reg).Snapshot(context.Background())

	assert.False(t, snap.Degraded)
	var names []string
	for _, m := range snap.PopularModels {
		assert.NotEqual(t, "Honda", m.Make)
		names = append(names, m.Model)
	}
	assert.Equal(t, []string{"Camry", "F-150", "Corolla", "Altima", "Silverado", "Malibu"}, names)
	assert.Equal(t, statusPartial, snap.SourceStatus["models"])
	assert.Equal(t, statusLive, snap.SourceStatus["makes"])
	assert.Equal(t, sourceRegistry, snap.DataSources[0])
	reg.AssertNotCalled(t, "ModelsForMake", mock.Anything, "Hyundai")
}

func TestSnapshot_SectionsAndTopTenModels(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("AllMakes", mock.Anything).Return(makes("Toyota", "Honda", "Ford", "Chevrolet", "Nissan"), nil)
	reg.On("ModelsForMake", mock.Anything, "Toyota").Return(models("Toyota", "Camry", "Corolla", "RAV4", "Tacoma"), nil)
	reg.On("ModelsForMake", mock.Anything, "Honda").Return(models("Honda", "Accord", "Civic", "CR-V"), nil)
	reg.On("ModelsForMake", mock.Anything, "Ford").Return(models("Ford", "F-150", "Escape"), nil)
	reg.On("ModelsForMake", mock.Anything, "Chevrolet").Return(models("Chevrolet", "Silverado", "Malibu"), nil)
	reg.On("ModelsForMake", mock.Anything, "Nissan").Return(models("Nissan", "Altima", "Sentra"), nil)

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := newTestAggregator(reg, WithClock(func() time.Time { return now })).Snapshot(context.Background())

	require.Len(t, snap.PopularModels, 10)
	assert.Equal(t, "Camry", snap.PopularModels[0].Model)
	for i := 1; i < len(snap.PopularModels); i++ {
		assert.GreaterOrEqual(t, snap.PopularModels[i-1].Count, snap.PopularModels[i].Count)
	}
	assert.Len(t, snap.PopularMakes, 5)
	assert.Equal(t, bodyTypes, snap.BodyTypes)
	assert.Equal(t, fuelTypes, snap.FuelTypes)
	assert.Len(t, snap.YearTrends, 10)
	assert.Equal(t, now, snap.LastUpdated)
	assert.Equal(t, []string{"NHTSA Vehicle API", "Market Analysis", "Industry Reports"}, snap.DataSources)
	assert.Empty(t, snap.Error)
}

func TestSnapshot_CachedWhenLive(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("AllMakes", mock.Anything).Return(makes("Toyota"), nil).Once()
	reg.On("ModelsForMake", mock.Anything, "Toyota").Return(models("Toyota", "Camry"), nil).Once()

	agg := newTestAggregator(reg)
	first := agg.Snapshot(context.Background())
	second := agg.Snapshot(context.Background())

	assert.Equal(t, first, second)
	reg.AssertExpectations(t)
}

func TestSnapshot_MakesFailureFallsBackPerSection(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("AllMakes", mock.Anything).Return(nil, errUpstream)
	reg.On("ModelsForMake", mock.Anything, mock.Anything).Return(nil, errUpstream)

	snap := newTestAggregator(reg).Snapshot(context.Background())

	assert.False(t, snap.Degraded)
	assert.Equal(t, fallbackMakes, snap.PopularMakes)
	assert.Empty(t, snap.PopularModels)
	assert.Equal(t, statusFallback, snap.SourceStatus["makes"])
	assert.Equal(t, statusFallback, snap.SourceStatus["models"])
	assert.Contains(t, snap.DataSources, "Fallback Data")
	assert.NotContains(t, snap.DataSources, "NHTSA Vehicle API")
	reg.AssertNumberOfCalls(t, "ModelsForMake", 5)
}

func TestSnapshot_CancelledAssemblyIsDegraded(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("AllMakes", mock.Anything).Return(nil, context.Canceled)
	reg.On("ModelsForMake", mock.Anything, mock.Anything).Return(nil, context.Canceled).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := newTestAggregator(reg).Snapshot(ctx)

	assert.True(t, snap.Degraded)
	assert.Equal(t, "Live data temporarily unavailable", snap.Error)
	assert.Equal(t, []string{"Fallback Data"}, snap.DataSources)
	assert.Equal(t, fallbackMakes, snap.PopularMakes)
	assert.NotNil(t, snap.PopularModels)
	assert.Empty(t, snap.PopularModels)
}

func TestSnapshot_PanickingRegistryDegradesOneSection(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("AllMakes", mock.Anything).Run(func(mock.Arguments) { panic("boom") })
	reg.On("ModelsForMake", mock.Anything, mock.Anything).Return(models("x", "Thing"), nil)

	snap := newTestAggregator(reg).Snapshot(context.Background())

	assert.False(t, snap.Degraded)
	assert.Equal(t, statusFallback, snap.SourceStatus["makes"])
	assert.Equal(t, fallbackMakes, snap.PopularMakes)
}

func TestSharedCache_FillsLocalTier(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	shared, err := rediscache.NewClient(mr.Host(), port, "", 0)
	require.NoError(t, err)
	defer shared.Close()

	warm := new(mockRegistry)
	warm.On("AllMakes", mock.Anything).Return(makes("Honda", "Toyota"), nil).Once()
	want := newTestAggregator(warm, WithSharedCache(shared)).Makes(context.Background())

	cold := new(mockRegistry)
	agg := newTestAggregator(cold, WithSharedCache(shared))
	got := agg.Makes(context.Background())

	assert.Equal(t, want, got)
	cold.AssertNotCalled(t, "AllMakes", mock.Anything)
	assert.Equal(t, 1, agg.CacheStats().Size)
}

func TestYearTrends(t *testing.T) {
	trends := YearTrends(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	require.Len(t, trends, 10)
	assert.Equal(t, YearTrend{Year: 2025, Count: 200000, AvgPrice: 25000, AvgMileage: 15000}, trends[0])
	assert.Equal(t, YearTrend{Year: 2024, Count: 215000, AvgPrice: 21250, AvgMileage: 30000}, trends[1])
	assert.Equal(t, YearTrend{Year: 2016, Count: 335000, AvgPrice: 5790, AvgMileage: 150000}, trends[9])
}

func TestCatalogue(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := Catalogue(now)

	require.Len(t, c.Sources, 4)
	assert.Equal(t, "NHTSA Vehicle API", c.Sources[0].Name)
	assert.Equal(t, 2847392, c.Quality.TotalRecords)
	assert.Equal(t, now, c.LastUpdated)
}

func TestCanonicalMake(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"TOYOTA", "Toyota", true},
		{"mercedes-benz", "Mercedes-Benz", true},
		{"  Land Rover ", "Land Rover", true},
		{"bmw", "BMW", true},
		{"ACME TRAILERS", "", false},
	}
	for _, tt := range tests {
		got, ok := CanonicalMake(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
