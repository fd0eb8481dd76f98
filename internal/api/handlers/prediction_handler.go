package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/AdanD9/car-price-predictor/internal/encoder"
	"github.com/AdanD9/car-price-predictor/internal/middleware/validation"
	"github.com/AdanD9/car-price-predictor/internal/scoring"
)

type PredictionHandler struct {
	predictor *scoring.Predictor
}

func NewPredictionHandler(predictor *scoring.Predictor) *PredictionHandler {
	return &PredictionHandler{predictor: predictor}
}

// Predict expects validation.Prediction to have run first.
func (h *PredictionHandler) Predict(c *fiber.Ctx) error {
	rec, ok := c.Locals(validation.LocalRecord).(encoder.Record)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	pred, err := h.predictor.Predict(c.Context(), rec)
	if errors.Is(err, scoring.ErrModelUnavailable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Model not loaded",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "prediction failed",
		})
	}

	return c.JSON(pred)
}

func (h *PredictionHandler) ModelInfo(c *fiber.Ctx) error {
	desc := scoring.Describe(h.predictor.Scorer())
	if !desc.Available {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Model not loaded",
		})
	}
	return c.JSON(desc)
}
