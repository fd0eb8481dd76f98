package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/AdanD9/car-price-predictor/internal/assistant"
	"github.com/AdanD9/car-price-predictor/internal/middleware/validation"
)

type Asker interface {
	Ask(ctx context.Context, question string) (assistant.Reply, error)
}

type AssistantHandler struct {
	assistant Asker
}

func NewAssistantHandler(a Asker) *AssistantHandler {
	return &AssistantHandler{assistant: a}
}

func (h *AssistantHandler) Chat(c *fiber.Ctx) error {
	question, _ := c.Locals(validation.LocalQuestion).(string)

	reply, err := h.assistant.Ask(c.Context(), question)
	switch {
	case errors.Is(err, assistant.ErrDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Market assistant is not configured",
		})
	case errors.Is(err, assistant.ErrEmptyQuestion):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case err != nil:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Market assistant unavailable",
		})
	}
	return c.JSON(reply)
}
