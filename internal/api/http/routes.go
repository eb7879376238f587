package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/wfang22/weather-lookup/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/:city", func(c *fiber.Ctx) error {
		city, err := parseCityParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := service.Lookup(c.Context(), city, time.Now())
		if err != nil {
			switch {
			case errors.Is(err, weather.ErrNetwork),
				errors.Is(err, weather.ErrEmptyResult),
				errors.Is(err, weather.ErrInvalidFormat):
				return fiber.NewError(fiber.StatusBadGateway, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
			}
		}

		return c.JSON(view)
	})

	v1.Get("/weather/:city/history", func(c *fiber.Ctx) error {
		city, err := parseCityParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		days := service.History(city)
		if len(days) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no weather history for requested city")
		}

		return c.JSON(fiber.Map{
			"city":   service.DisplayName(city),
			"cityId": city,
			"days":   days,
		})
	})

	v1.Get("/weather/:city/trend", func(c *fiber.Ctx) error {
		var req trendQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		asOf := time.Now().Format(weather.DateLayout)
		days := service.RecentTrend(req.City, asOf, req.Days)

		return c.JSON(fiber.Map{
			"city":   service.DisplayName(req.City),
			"cityId": req.City,
			"asOf":   asOf,
			"days":   days,
		})
	})
}

// cityParam identifies the looked-up city.
type cityParam struct {
	City string `validate:"required"`
}

func parseCityParam(c *fiber.Ctx) (string, error) {
	p := cityParam{City: c.Params("city")}
	if err := validate.Struct(p); err != nil {
		return "", err
	}
	return p.City, nil
}

// trendQuery holds parameters for the trend endpoint.
type trendQuery struct {
	City string `validate:"required"`
	Days int    `validate:"min=1,max=30"`
}

func (q *trendQuery) bind(c *fiber.Ctx) error {
	city, err := parseCityParam(c)
	if err != nil {
		return err
	}
	q.City = city

	q.Days = 6
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("days must be an integer")
		}
		q.Days = n
	}
	return nil
}
