package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AdanD9/car-price-predictor/internal/metrics"
	"github.com/AdanD9/car-price-predictor/pkg/circuitbreaker"
	"github.com/AdanD9/car-price-predictor/pkg/logger"
	"github.com/AdanD9/car-price-predictor/pkg/retry"
)

var (
	// ErrUpstreamStatus is returned for any non-2xx response.
	ErrUpstreamStatus = errors.New("registry returned non-success status")
	// ErrMalformedPayload is returned when the body is not {Results: [...]}.
	ErrMalformedPayload = errors.New("registry returned malformed payload")
)

// HTTPClient matches net/http.Client Do signature for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxAttempts     int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	DisableBreaker  bool
}

// maxBreakers bounds the per-source breakers. Sources beyond it share the
// breaker of their operation.
const maxBreakers = 128

// Client talks to the public vehicle registry (NHTSA vPIC). Every source
// (the makes list, each make's models, VIN decoding) has its own breaker so
// one failing source never short-circuits the others.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	retryCfg   retry.Config

	breakerCfg *circuitbreaker.Config
	mu         sync.Mutex
	breakers   map[string]*circuitbreaker.CircuitBreaker
}

type Make struct {
	ID   int    `json:"Make_ID"`
	Name string `json:"Make_Name"`
}

type Model struct {
	MakeID   int    `json:"Make_ID"`
	MakeName string `json:"Make_Name"`
	ID       int    `json:"Model_ID"`
	Name     string `json:"Model_Name"`
}

// VINDecode is the flat decode of a single VIN.
type VINDecode struct {
	Make              string `json:"Make"`
	Model             string `json:"Model"`
	ModelYear         string `json:"ModelYear"`
	BodyClass         string `json:"BodyClass"`
	FuelTypePrimary   string `json:"FuelTypePrimary"`
	TransmissionStyle string `json:"TransmissionStyle"`
	DisplacementCC    string `json:"DisplacementCC"`
	EngineCylinders   string `json:"EngineCylinders"`
	ErrorCode         string `json:"ErrorCode"`
	ErrorText         string `json:"ErrorText"`
}

func New(httpClient HTTPClient, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles"
	}

	retryCfg := retry.Once()
	if cfg.MaxAttempts > 1 {
		retryCfg.MaxAttempts = cfg.MaxAttempts
		retryCfg.InitialDelay = 250 * time.Millisecond
		retryCfg.MaxDelay = 2 * time.Second
	}
	retryCfg.Retryable = func(err error) bool { return !errors.Is(err, ErrMalformedPayload) }
	retryCfg.Logger = logger.GetLogger()

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		retryCfg:   retryCfg,
		breakers:   make(map[string]*circuitbreaker.CircuitBreaker),
	}

	if !cfg.DisableBreaker {
		c.breakerCfg = &circuitbreaker.Config{
			FailureThreshold: cfg.BreakerFailures,
			Timeout:          cfg.BreakerTimeout,
			IsFailure:        func(err error) bool { return !errors.Is(err, context.Canceled) },
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			},
			Logger: logger.GetLogger(),
		}
	}

	return c
}

// AllMakes lists every make name known to the registry.
func (c *Client) AllMakes(ctx context.Context) ([]Make, error) {
	var makes []Make
	err := c.fetch(ctx, "makes", "makes", "/getallmakes", &makes)
	return makes, err
}

// ModelsForMake lists the models the registry has for makeName.
func (c *Client) ModelsForMake(ctx context.Context, makeName string) ([]Model, error) {
	var models []Model
	source := "models:" + strings.ToLower(strings.TrimSpace(makeName))
	err := c.fetch(ctx, "models", source, "/getmodelsformake/"+url.PathEscape(makeName), &models)
	return models, err
}

// DecodeVIN decodes a 17 character VIN.
func (c *Client) DecodeVIN(ctx context.Context, vin string) (VINDecode, error) {
	var decodes []VINDecode
	if err := c.fetch(ctx, "vin", "vin", "/DecodeVinValues/"+url.PathEscape(vin), &decodes); err != nil {
		return VINDecode{}, err
	}
	if len(decodes) == 0 {
		return VINDecode{}, fmt.Errorf("%w: empty decode for %s", ErrMalformedPayload, vin)
	}
	return decodes[0], nil
}

// breaker returns the breaker for source, creating it on first use. It is
// nil when breakers are disabled.
func (c *Client) breaker(operation, source string) *circuitbreaker.CircuitBreaker {
	if c.breakerCfg == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.breakers[source]; ok {
		return b
	}
	if len(c.breakers) >= maxBreakers {
		source = operation
		if b, ok := c.breakers[source]; ok {
			return b
		}
	}
	b := circuitbreaker.New("registry:"+source, *c.breakerCfg)
	c.breakers[source] = b
	return b
}

func (c *Client) fetch(ctx context.Context, operation, source, path string, out any) error {
	start := time.Now()
	defer func() {
		metrics.UpstreamDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	do := func() error {
		return retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
			return c.get(ctx, path, out)
		})
	}

	var err error
	breakerName := "none"
	if b := c.breaker(operation, source); b != nil {
		breakerName = b.Name()
		err = b.Execute(do)
	} else {
		err = do()
	}

	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(operation, "error").Inc()
		logger.Warn("Registry request failed",
			zap.String("operation", operation),
			zap.String("path", path),
			zap.String("breaker", breakerName),
			zap.Error(err),
		)
		return err
	}

	metrics.UpstreamRequests.WithLabelValues(operation, "ok").Inc()
	return nil
}

type envelope struct {
	Count   int             `json:"Count"`
	Message string          `json:"Message"`
	Results json.RawMessage `json:"Results"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	endpoint := fmt.Sprintf("%s%s?format=json", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(env.Results) == 0 || string(env.Results) == "null" {
		return fmt.Errorf("%w: missing Results", ErrMalformedPayload)
	}
	if err := json.Unmarshal(env.Results, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
