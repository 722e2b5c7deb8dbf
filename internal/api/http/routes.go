package httpapi

import (
	"errors"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/bcosynot/ouch/internal/owie"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *owie.Service) {
	// Availability probe.
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Hello World",
		})
	})

	app.Post("/owie/:bodyPart", func(c *fiber.Ctx) error {
		req, err := parseOwieParams(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entry, err := service.Log(c.UserContext(), req.BodyPart)
		if err != nil {
			if errors.Is(err, owie.ErrWeatherFetch) {
				return fiber.NewError(fiber.StatusBadGateway, "failed to fetch weather data")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to log owie")
		}

		return c.JSON(fiber.Map{
			"message":     "Logged owie details successfully",
			"body_part":   entry.BodyPart,
			"temperature": entry.Temperature,
			"pressure":    entry.Pressure,
		})
	})
}

// owieParams holds the path parameters for the owie endpoint.
type owieParams struct {
	BodyPart string `validate:"required,max=64"`
}

func parseOwieParams(c *fiber.Ctx) (owieParams, error) {
	var p owieParams

	bodyPart, err := url.PathUnescape(c.Params("bodyPart"))
	if err != nil {
		return p, err
	}
	p.BodyPart = bodyPart

	if err := validate.Struct(p); err != nil {
		return p, err
	}

	return p, nil
}
