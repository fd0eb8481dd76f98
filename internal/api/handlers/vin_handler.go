package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/AdanD9/car-price-predictor/internal/middleware/validation"
	"github.com/AdanD9/car-price-predictor/internal/vin"
)

type VINLookup interface {
	Lookup(ctx context.Context, v string) (vin.Result, error)
}

type VINHandler struct {
	service VINLookup
}

func NewVINHandler(service VINLookup) *VINHandler {
	return &VINHandler{service: service}
}

func (h *VINHandler) Lookup(c *fiber.Ctx) error {
	v, _ := c.Locals(validation.LocalVIN).(string)

	res, err := h.service.Lookup(c.Context(), v)
	switch {
	case errors.Is(err, vin.ErrInvalidVIN):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case err != nil:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": vin.ErrLookupUnavailable.Error(),
		})
	}
	return c.JSON(res)
}
