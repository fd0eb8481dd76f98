package vin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/AdanD9/car-price-predictor/internal/cache"
	"github.com/AdanD9/car-price-predictor/internal/market"
	"github.com/AdanD9/car-price-predictor/internal/metrics"
	"github.com/AdanD9/car-price-predictor/internal/registry"
	"github.com/AdanD9/car-price-predictor/pkg/logger"
	"github.com/AdanD9/car-price-predictor/pkg/utils"
)

var (
	ErrInvalidVIN        = errors.New("VIN must be 17 characters excluding I, O and Q")
	ErrLookupUnavailable = errors.New("VIN lookup unavailable")
)

var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// Normalize upper-cases and trims v, and reports whether it is a valid VIN.
func Normalize(v string) (string, bool) {
	v = strings.ToUpper(strings.TrimSpace(v))
	return v, vinPattern.MatchString(v)
}

type Decoder interface {
	DecodeVIN(ctx context.Context, vin string) (registry.VINDecode, error)
}

// Result uses the prediction request's field names so a decoded VIN can be
// submitted for a price estimate with mileage added.
type Result struct {
	VIN                string `json:"vin"`
	MakeName           string `json:"make_name"`
	ModelName          string `json:"model_name"`
	Year               int    `json:"year"`
	BodyType           string `json:"body_type,omitempty"`
	FuelType           string `json:"fuel_type,omitempty"`
	Transmission       string `json:"transmission,omitempty"`
	EngineDisplacement int    `json:"engine_displacement,omitempty"`
	EngineCylinders    string `json:"engine_cylinders,omitempty"`
	Success            bool   `json:"success"`
	Message            string `json:"message"`
}

type Service struct {
	decoder Decoder
	cache   *cache.TTLCache
}

func NewService(decoder Decoder, c *cache.TTLCache) *Service {
	return &Service{decoder: decoder, cache: c}
}

func (s *Service) Lookup(ctx context.Context, raw string) (Result, error) {
	v, ok := Normalize(raw)
	if !ok {
		return Result{}, ErrInvalidVIN
	}

	key := utils.CacheKey("vin", v)
	if cached, ok := s.cache.Get(key); ok {
		if res, ok := cached.(Result); ok {
			metrics.CacheHits.WithLabelValues("local").Inc()
			return res, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("local").Inc()

	decoded, err := s.decoder.DecodeVIN(ctx, v)
	if err != nil {
		logger.Warn("VIN decode failed", zap.String("vin", v), zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}

	res := fromDecode(v, decoded)
	s.cache.Set(key, res)
	return res, nil
}

func fromDecode(v string, d registry.VINDecode) Result {
	res := Result{
		VIN:                v,
		MakeName:           canonicalMake(d.Make),
		ModelName:          strings.TrimSpace(d.Model),
		Year:               atoi(d.ModelYear),
		BodyType:           bodyType(d.BodyClass),
		FuelType:           fuelType(d.FuelTypePrimary),
		Transmission:       transmission(d.TransmissionStyle),
		EngineDisplacement: displacement(d.DisplacementCC),
		EngineCylinders:    cylinders(d.EngineCylinders),
	}

	if res.MakeName != "" && res.ModelName != "" && res.Year > 0 {
		res.Success = true
		res.Message = "VIN decoded successfully"
		return res
	}
	res.Message = "VIN decoded with limited information"
	if text := strings.TrimSpace(d.ErrorText); text != "" && d.ErrorCode != "0" {
		res.Message += ": " + text
	}
	return res
}

func canonicalMake(name string) string {
	if canonical, ok := market.CanonicalMake(name); ok {
		return canonical
	}
	return strings.TrimSpace(name)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func displacement(cc string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(cc), 64)
	if err != nil || f <= 0 {
		return 0
	}
	return int(math.Round(f))
}

// cylinders renders a cylinder count in the listing style (I4, V6).
func cylinders(count string) string {
	n := atoi(count)
	switch {
	case n <= 0:
		return ""
	case n <= 5:
		return "I" + strconv.Itoa(n)
	default:
		return "V" + strconv.Itoa(n)
	}
}

// Registry vocabularies are matched by prefix, in order.
type mapping struct {
	prefix string
	value  string
}

var bodyClasses = []mapping{
	{"sedan", "Sedan"},
	{"sport utility", "SUV / Crossover"},
	{"crossover", "SUV / Crossover"},
	{"pickup", "Pickup Truck"},
	{"coupe", "Coupe"},
	{"hatchback", "Hatchback"},
	{"wagon", "Wagon"},
	{"minivan", "Minivan"},
	{"van", "Van"},
	{"convertible", "Convertible"},
}

var fuelClasses = []mapping{
	{"gasoline", "Gasoline"},
	{"diesel", "Diesel"},
	{"electric", "Electric"},
	{"flexible fuel", "Flex Fuel Vehicle"},
	{"compressed natural gas", "Compressed Natural Gas"},
	{"liquefied petroleum gas", "Propane"},
	{"propane", "Propane"},
}

var transmissionStyles = []mapping{
	{"continuously variable", "CVT"},
	{"dual-clutch", "Dual Clutch"},
	{"manual", "M"},
	{"automated manual", "M"},
	{"automatic", "A"},
}

func lookupPrefix(table []mapping, s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	for _, m := range table {
		if strings.HasPrefix(s, m.prefix) {
			return m.value
		}
	}
	return ""
}

func bodyType(class string) string { return lookupPrefix(bodyClasses, class) }
func fuelType(primary string) string { return lookupPrefix(fuelClasses, primary) }
func transmission(style string) string { return lookupPrefix(transmissionStyles, style) }
