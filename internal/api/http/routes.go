package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-widget/internal/suggest"
	"github.com/i474232898/weather-widget/internal/widget"
)

var validate = validator.New()

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the widget commands and view into the Fiber app.
func RegisterRoutes(app *fiber.App, ctrl *widget.Controller, suggestions *suggest.Engine) {
	v1 := app.Group("/api/v1")

	v1.Get("/widget", func(c *fiber.Ctx) error {
		return c.JSON(ctrl.View())
	})

	v1.Post("/widget/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := ctrl.OnSearchRequested(req.City); err != nil {
			return commandError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(ctrl.View())
	})

	v1.Post("/widget/refresh", func(c *fiber.Ctx) error {
		if err := ctrl.RefreshCurrent(); err != nil {
			return commandError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(ctrl.View())
	})

	v1.Post("/widget/unit", func(c *fiber.Ctx) error {
		if _, err := ctrl.ToggleUnit(); err != nil {
			return commandError(err)
		}
		return c.JSON(ctrl.View())
	})

	v1.Delete("/widget/error", func(c *fiber.Ctx) error {
		ctrl.DismissError()
		return c.JSON(ctrl.View())
	})

	v1.Get("/suggestions", func(c *fiber.Ctx) error {
		q := suggestionQuery{Prefix: c.Query("q")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		list := suggestions.Suggest(q.Prefix)
		if list == nil {
			list = []string{}
		}
		return c.JSON(fiber.Map{
			"suggestions": list,
		})
	})
}

// searchRequest is the body of a search command. A blank city is valid
// input; the widget answers it with its own error banner.
type searchRequest struct {
	City string `json:"city" validate:"max=100"`
}

// suggestionQuery holds query parameters for the suggestions endpoint.
type suggestionQuery struct {
	Prefix string `validate:"max=100"`
}

func commandError(err error) error {
	switch {
	case errors.Is(err, widget.ErrNotDisplaying), errors.Is(err, widget.ErrNothingToRefresh):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, widget.ErrClosed):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "command failed")
	}
}
