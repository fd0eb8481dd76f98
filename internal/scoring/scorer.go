package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdanD9/car-price-predictor/internal/encoder"
)

var (
	// ErrModelUnavailable means no trained model can be reached.
	ErrModelUnavailable = errors.New("price model unavailable")
	// ErrScoringFailed means the scorer ran but could not produce a price.
	ErrScoringFailed = errors.New("prediction failed")
)

// Scorer turns a complete feature vector into a non-negative price.
type Scorer interface {
	Score(ctx context.Context, vec encoder.Vector) (float64, error)
	Info() ModelInfo
	Available() bool
}

type ModelInfo struct {
	ModelType string  `json:"model_type"`
	R2Score   float64 `json:"r2_score,omitempty"`
	MAE       float64 `json:"mae,omitempty"`
	RMSE      float64 `json:"rmse,omitempty"`
}

type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// oneSigma is the coverage of a +/- one RMSE band.
const oneSigma = 0.68

// Interval is price +/- rmse with the lower bound held at floor.
func Interval(price, rmse, floor float64) ConfidenceInterval {
	return ConfidenceInterval{
		Lower:           max(floor, price-rmse),
		Upper:           price + rmse,
		ConfidenceLevel: oneSigma,
	}
}

type PerformanceMetrics struct {
	R2Score float64 `json:"r2_score"`
	MAE     float64 `json:"mae"`
	RMSE    float64 `json:"rmse"`
}

type TrainingInfo struct {
	TrainingSamples int `json:"training_samples"`
	TestSamples     int `json:"test_samples"`
	Features        int `json:"features"`
}

// Description is the /models/info payload.
type Description struct {
	ModelType           string              `json:"model_type"`
	Available           bool                `json:"available"`
	PerformanceMetrics  *PerformanceMetrics `json:"performance_metrics,omitempty"`
	TrainingInfo        *TrainingInfo       `json:"training_info,omitempty"`
	CategoricalFeatures []string            `json:"categorical_features"`
	FeatureCount        int                 `json:"feature_count"`
}

var catBoostTraining = TrainingInfo{TrainingSamples: 2247145, TestSamples: 561787, Features: 87}

func Describe(s Scorer) Description {
	info := s.Info()
	d := Description{
		ModelType:           info.ModelType,
		Available:           s.Available(),
		CategoricalFeatures: append([]string(nil), encoder.CategoricalFeatures...),
		FeatureCount:        len(encoder.FeatureNames()),
	}
	if info.RMSE > 0 {
		d.PerformanceMetrics = &PerformanceMetrics{R2Score: info.R2Score, MAE: info.MAE, RMSE: info.RMSE}
	}
	if _, ok := s.(*ModelScorer); ok {
		training := catBoostTraining
		d.TrainingInfo = &training
	}
	return d
}

// number reads a numeric feature that may be stored as int or float64.
func number(vec encoder.Vector, key string) (float64, error) {
	switch v := vec[key].(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	case nil:
		return 0, fmt.Errorf("%w: feature %q missing", ErrScoringFailed, key)
	default:
		return 0, fmt.Errorf("%w: feature %q has type %T", ErrScoringFailed, key, v)
	}
}
