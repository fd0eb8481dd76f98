package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AdanD9/car-price-predictor/internal/encoder"
	"github.com/AdanD9/car-price-predictor/internal/metrics"
	"github.com/AdanD9/car-price-predictor/pkg/circuitbreaker"
	"github.com/AdanD9/car-price-predictor/pkg/logger"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var catBoostInfo = ModelInfo{
	ModelType: "CatBoost Regressor",
	R2Score:   0.9834,
	MAE:       1146.38,
	RMSE:      1969.66,
}

// ModelScorer asks an external model server for a log-price and inverts it.
type ModelScorer struct {
	url     string
	client  HTTPClient
	breaker *circuitbreaker.CircuitBreaker
}

type modelRequest struct {
	Features encoder.Vector `json:"features"`
}

type modelResponse struct {
	Prediction *float64 `json:"prediction"`
}

func NewModelScorer(url string, timeout time.Duration, client HTTPClient) *ModelScorer {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &ModelScorer{
		url:    url,
		client: client,
		breaker: circuitbreaker.New("model", circuitbreaker.Config{
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
			IsFailure:        func(err error) bool { return errors.Is(err, ErrModelUnavailable) },
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			},
			Logger: logger.GetLogger(),
		}),
	}
}

func (m *ModelScorer) Info() ModelInfo { return catBoostInfo }

func (m *ModelScorer) Available() bool {
	return m.url != "" && m.breaker.State() != circuitbreaker.StateOpen
}

func (m *ModelScorer) Score(ctx context.Context, vec encoder.Vector) (float64, error) {
	if m.url == "" {
		return 0, fmt.Errorf("%w: no model server configured", ErrModelUnavailable)
	}

	price, err := circuitbreaker.ExecuteWithResult(m.breaker, func() (float64, error) {
		return m.predict(ctx, vec)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return 0, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return price, err
}

func (m *ModelScorer) predict(ctx context.Context, vec encoder.Vector) (float64, error) {
	body, err := json.Marshal(modelRequest{Features: vec})
	if err != nil {
		return 0, fmt.Errorf("%w: encode features: %v", ErrScoringFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", ErrModelUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %v", ErrModelUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return 0, fmt.Errorf("%w: model server returned %d", ErrModelUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		logger.Warn("Model server rejected features",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncateBody(data)),
		)
		return 0, fmt.Errorf("%w: model server returned %d", ErrScoringFailed, resp.StatusCode)
	}

	var out modelResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrScoringFailed, err)
	}
	if out.Prediction == nil {
		return 0, fmt.Errorf("%w: response has no prediction", ErrScoringFailed)
	}

	logPrice := *out.Prediction
	if math.IsNaN(logPrice) || math.IsInf(logPrice, 0) {
		return 0, fmt.Errorf("%w: non-finite prediction", ErrScoringFailed)
	}
	return max(0, math.Expm1(logPrice)), nil
}

func truncateBody(b []byte) []byte {
	if len(b) > 256 {
		return b[:256]
	}
	return b
}
