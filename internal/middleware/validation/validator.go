package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AdanD9/car-price-predictor/internal/encoder"
	"github.com/AdanD9/car-price-predictor/internal/vin"
)

// Locals keys set by the validators for downstream handlers.
const (
	LocalRecord   = "validated_record"
	LocalVIN      = "validated_vin"
	LocalQuestion = "validated_question"
)

var xssPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)

// Bounds are the accepted ranges for the required prediction fields.
type Bounds struct {
	MinYear    int
	MaxYear    int
	MaxMileage int
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

func (e *Errors) add(field, format string, args ...any) {
	*e = append(*e, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

type number interface {
	~int | ~float64
}

func checkRange[T number](errs *Errors, field string, o encoder.Opt[T], lo, hi T) {
	if v, ok := o.Get(); ok && (v < lo || v > hi) {
		errs.add(field, "must be between %v and %v", lo, hi)
	}
}

// ValidateRecord checks the required identity fields against b and the
// optional numeric fields against their physical ranges.
func ValidateRecord(r encoder.Record, b Bounds) Errors {
	var errs Errors
	if strings.TrimSpace(r.MakeName) == "" {
		errs.add("make_name", "field cannot be empty")
	}
	if strings.TrimSpace(r.ModelName) == "" {
		errs.add("model_name", "field cannot be empty")
	}
	if r.Year < b.MinYear || r.Year > b.MaxYear {
		errs.add("year", "must be between %d and %d", b.MinYear, b.MaxYear)
	}
	if r.Mileage < 0 || r.Mileage > b.MaxMileage {
		errs.add("mileage", "must be between 0 and %d", b.MaxMileage)
	}

	checkRange(&errs, "engine_displacement", r.EngineDisplacement, 700, 8400)
	checkRange(&errs, "horsepower", r.Horsepower, 55, 1001)
	checkRange(&errs, "city_fuel_economy", r.CityFuelEconomy, 7, 127)
	checkRange(&errs, "highway_fuel_economy", r.HighwayFuelEconomy, 10, 127)
	checkRange(&errs, "maximum_seating", r.MaximumSeating, 2, 19)
	checkRange(&errs, "owner_count", r.OwnerCount, 1, 19)
	return errs
}

// ContentType rejects POST and PUT bodies that are not one of allowed.
func ContentType(allowed ...string) fiber.Handler {
	if len(allowed) == 0 {
		allowed = []string{fiber.MIMEApplicationJSON}
	}
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}
		contentType := c.Get(fiber.HeaderContentType)
		for _, a := range allowed {
			if strings.HasPrefix(contentType, a) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": "Unsupported content type",
		})
	}
}

// Prediction parses and validates a prediction body, storing the normalized
// encoder.Record under LocalRecord.
func Prediction(b Bounds, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rec encoder.Record
		if err := c.BodyParser(&rec); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		if errs := ValidateRecord(rec, b); len(errs) > 0 {
			log.Debug("Prediction request rejected",
				zap.String("ip", c.IP()),
				zap.String("reason", errs.Error()),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "validation failed",
				"details": errs,
			})
		}

		c.Locals(LocalRecord, rec.Normalize())
		return c.Next()
	}
}

type vinRequest struct {
	VIN string `json:"vin"`
}

// VIN validates a {"vin": ...} body and stores the normalized VIN.
func VIN() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req vinRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		normalized, ok := vin.Normalize(req.VIN)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": vin.ErrInvalidVIN.Error(),
			})
		}

		c.Locals(LocalVIN, normalized)
		return c.Next()
	}
}

type questionRequest struct {
	Message string `json:"message"`
}

// Question validates a chat body and stores the sanitized message.
func Question(maxLength int, log *zap.Logger) fiber.Handler {
	if maxLength <= 0 {
		maxLength = 2000
	}
	return func(c *fiber.Ctx) error {
		var req questionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		message := sanitizeString(req.Message)
		if message == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Message is required and must be a string",
			})
		}
		if len(message) > maxLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Message exceeds maximum length",
			})
		}
		if xssPattern.MatchString(message) {
			log.Warn("Potential XSS attempt",
				zap.String("ip", c.IP()),
				zap.String("message", message),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid message content",
			})
		}

		c.Locals(LocalQuestion, message)
		return c.Next()
	}
}

func sanitizeString(input string) string {
	input = strings.TrimSpace(input)
	return strings.ReplaceAll(input, "\x00", "")
}
