package scoring

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/AdanD9/car-price-predictor/internal/encoder"
)

const (
	defaultBasePrice = 25000.0
	yearlyRetention  = 0.85
	mileageLifetime  = 300000.0
	mileageFloor     = 0.3
)

// basePrices are approximate new-vehicle prices by make.
var basePrices = map[string]float64{
	"acura":         38000,
	"audi":          45000,
	"bmw":           48000,
	"buick":         30000,
	"cadillac":      50000,
	"chevrolet":     29000,
	"dodge":         31000,
	"ford":          30000,
	"gmc":           38000,
	"honda":         27000,
	"hyundai":       24000,
	"infiniti":      44000,
	"jeep":          34000,
	"kia":           24000,
	"lexus":         47000,
	"lincoln":       48000,
	"mazda":         27000,
	"mercedes-benz": 52000,
	"nissan":        26000,
	"porsche":       85000,
	"ram":           40000,
	"subaru":        29000,
	"tesla":         50000,
	"toyota":        28000,
	"volkswagen":    28000,
	"volvo":         45000,
}

func BasePrice(makeName string) float64 {
	if p, ok := basePrices[strings.ToLower(strings.TrimSpace(makeName))]; ok {
		return p
	}
	return defaultBasePrice
}

// HeuristicScorer estimates price from make, age and mileage alone.
type HeuristicScorer struct {
	minPrice float64
	jitter   float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewHeuristicScorer builds a scorer whose output varies by up to +/- jitter.
// A nil src seeds from the clock.
func NewHeuristicScorer(minPrice, jitter float64, src rand.Source) *HeuristicScorer {
	if src == nil {
		src = rand.NewSource(rand.Int63())
	}
	return &HeuristicScorer{minPrice: minPrice, jitter: jitter, rnd: rand.New(src)}
}

func (h *HeuristicScorer) Info() ModelInfo { return ModelInfo{ModelType: "Heuristic Estimator"} }

func (h *HeuristicScorer) Available() bool { return true }

func (h *HeuristicScorer) Score(_ context.Context, vec encoder.Vector) (float64, error) {
	makeName, _ := vec["make_name"].(string)
	age, err := number(vec, "car_age")
	if err != nil {
		return 0, err
	}
	mileage, err := number(vec, "mileage")
	if err != nil {
		return 0, err
	}

	price := BasePrice(makeName) *
		math.Pow(yearlyRetention, age) *
		math.Max(mileageFloor, 1-mileage/mileageLifetime) *
		(1 + h.noise())

	return math.Max(h.minPrice, math.Round(price*100)/100), nil
}

// noise is uniform in [-jitter, +jitter).
func (h *HeuristicScorer) noise() float64 {
	if h.jitter <= 0 {
		return 0
	}
	h.mu.Lock()
	r := h.rnd.Float64()
	h.mu.Unlock()
	return (2*r - 1) * h.jitter
}
