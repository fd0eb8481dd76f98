package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AdanD9/car-price-predictor/internal/encoder"
	"github.com/AdanD9/car-price-predictor/internal/metrics"
	"github.com/AdanD9/car-price-predictor/pkg/logger"
)

type Prediction struct {
	PredictionID       string             `json:"prediction_id"`
	PredictedPrice     float64            `json:"predicted_price"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	ModelInfo          ModelInfo          `json:"model_info"`
	ReferenceDate      string             `json:"reference_date"`
}

// Predictor runs a record through the encoder and the configured scorer.
type Predictor struct {
	encoder  *encoder.Encoder
	scorer   Scorer
	rmse     float64
	minPrice float64
}

func NewPredictor(enc *encoder.Encoder, scorer Scorer, rmse, minPrice float64) *Predictor {
	return &Predictor{encoder: enc, scorer: scorer, rmse: rmse, minPrice: minPrice}
}

func (p *Predictor) Scorer() Scorer { return p.scorer }

// Predict scores r. Errors wrap ErrModelUnavailable or ErrScoringFailed.
func (p *Predictor) Predict(ctx context.Context, r encoder.Record) (Prediction, error) {
	start := time.Now()
	info := p.scorer.Info()
	label := info.ModelType

	ref := p.encoder.ReferenceTime()
	vec := encoder.Encode(r.Normalize(), ref)

	price, err := p.scorer.Score(ctx, vec)
	metrics.PredictionDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictionTotal.WithLabelValues(label, "error").Inc()
		logger.Error("Prediction failed",
			zap.String("make", r.MakeName),
			zap.String("model", r.ModelName),
			zap.Int("year", r.Year),
			zap.Error(err),
		)
		if errors.Is(err, ErrModelUnavailable) {
			return Prediction{}, err
		}
		if !errors.Is(err, ErrScoringFailed) {
			err = fmt.Errorf("%w: %v", ErrScoringFailed, err)
		}
		return Prediction{}, err
	}

	metrics.PredictionTotal.WithLabelValues(label, "ok").Inc()
	metrics.PredictedPrice.Observe(price)

	pred := Prediction{
		PredictionID:       uuid.NewString(),
		PredictedPrice:     price,
		ConfidenceInterval: Interval(price, p.rmse, p.minPrice),
		ModelInfo:          info,
		ReferenceDate:      ref.Format("2006-01-02"),
	}

	logger.Info("Prediction made",
		zap.String("prediction_id", pred.PredictionID),
		zap.Float64("price", price),
		zap.Int("year", r.Year),
		zap.String("make", r.MakeName),
		zap.String("model", r.ModelName),
	)
	return pred, nil
}
