package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/surfcast/internal/forecast"
	"github.com/i474232898/surfcast/internal/spots"
)

var validate = validator.New()

// requestTimeout bounds the upstream work of a single request.
const requestTimeout = 20 * time.Second

// MarineService is what the routes need from the spot service.
type MarineService interface {
	Builtins(ctx context.Context) ([]spots.SpotSeries, error)
	Search(ctx context.Context, q string) (forecast.Place, forecast.HourlySeries, error)
	Suggest(ctx context.Context, q string) ([]forecast.Place, error)
	Track(ctx context.Context, q string) (spots.SpotView, bool, error)
	Untrack(ctx context.Context, id string) error
	Visible() []spots.SpotView
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service MarineService) {
	marine := app.Group("/api/marine")

	marine.Get("/", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()

		results, err := service.Builtins(ctx)
		if err != nil {
			// Any spot failing fails the whole listing.
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch marine data")
		}

		out := make([]builtinResult, len(results))
		for i, r := range results {
			out[i] = builtinResult{City: r.Spot.Name, Data: r.Series}
		}
		return c.JSON(fiber.Map{"spots": out})
	})

	marine.Get("/search", func(c *fiber.Ctx) error {
		q, err := parseSearchQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()

		place, series, err := service.Search(ctx, q.Q)
		if err != nil {
			return toFiberError(err, "failed to fetch marine data")
		}

		return c.JSON(fiber.Map{
			"spot": searchSpot{
				City:      place.Name,
				Latitude:  place.Coordinate.Latitude,
				Longitude: place.Coordinate.Longitude,
			},
			"data": series,
		})
	})

	marine.Get("/suggest", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()

		places, err := service.Suggest(ctx, c.Query("q"))
		if err != nil {
			return toFiberError(err, "failed to fetch suggestions")
		}

		out := make([]suggestion, len(places))
		for i, p := range places {
			out[i] = suggestion{
				Name:      p.Name,
				Latitude:  p.Coordinate.Latitude,
				Longitude: p.Coordinate.Longitude,
				Country:   p.Country,
				Admin1:    p.Region,
			}
		}
		return c.JSON(fiber.Map{"results": out})
	})

	marine.Get("/spots", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"spots": service.Visible()})
	})

	marine.Post("/spots", func(c *fiber.Ctx) error {
		q, err := parseSearchQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()

		view, added, err := service.Track(ctx, q.Q)
		if err != nil {
			return toFiberError(err, "failed to track spot")
		}

		status := fiber.StatusOK
		if added {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{
			"spot":  view,
			"added": added,
			"spots": service.Visible(),
		})
	})

	marine.Delete("/spots/:id", func(c *fiber.Ctx) error {
		if err := service.Untrack(c.UserContext(), c.Params("id")); err != nil {
			return toFiberError(err, "failed to remove spot")
		}
		return c.JSON(fiber.Map{"spots": service.Visible()})
	})
}

type builtinResult struct {
	City string                `json:"city"`
	Data forecast.HourlySeries `json:"data"`
}

type searchSpot struct {
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type suggestion struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country,omitempty"`
	Admin1    string  `json:"admin1,omitempty"`
}

// searchQuery holds the free-text place query.
type searchQuery struct {
	Q string `validate:"required"`
}

func parseSearchQuery(c *fiber.Ctx) (searchQuery, error) {
	q := searchQuery{Q: strings.TrimSpace(c.Query("q"))}
	if err := validate.Struct(q); err != nil {
		return q, errors.New("query parameter q is required")
	}
	return q, nil
}

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

// toFiberError maps domain errors onto HTTP statuses. Upstream details are
// not exposed to clients.
func toFiberError(err error, msg string) error {
	switch {
	case errors.Is(err, forecast.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, forecast.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, msg)
	}
}
