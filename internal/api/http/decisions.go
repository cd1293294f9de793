package httpapi

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/smart-sprinkler/internal/irrigation"
	"github.com/i474232898/smart-sprinkler/internal/metrics"
	"github.com/i474232898/smart-sprinkler/internal/sensor"
	"github.com/i474232898/smart-sprinkler/internal/weather"
)

type decisionHandler struct {
	engine  *irrigation.Engine
	weather *weather.Service
	logger  *slog.Logger
}

// decisionRequest carries the sensor readings and, optionally, the weather.
// When Weather is absent the cached or live weather for City is used.
type decisionRequest struct {
	Sensors []float64     `json:"sensors" validate:"required"`
	Weather *weatherInput `json:"weather"`
	City    string        `json:"city"`
	Country string        `json:"country"`
}

type weatherInput struct {
	Temperature *float64 `json:"temperature" validate:"required"`
	Humidity    *float64 `json:"humidity" validate:"required"`
	Rain        *float64 `json:"rain" validate:"required"`
}

type sprinklerState struct {
	Zone  int    `json:"zone"`
	State string `json:"state"`
}

type decisionResponse struct {
	DecisionID    string               `json:"decisionId"`
	Category      irrigation.Category  `json:"category"`
	Action        irrigation.Action    `json:"action"`
	Message       string               `json:"message"`
	Icon          string               `json:"icon"`
	Zones         [sensor.Zones]bool   `json:"zones"`
	Sprinklers    []sprinklerState     `json:"sprinklers"`
	Weather       *weather.Observation `json:"weather,omitempty"`
	WeatherSource weather.Source       `json:"weatherSource,omitempty"`
}

func (h *decisionHandler) decide(c *fiber.Ctx) error {
	var req decisionRequest
	if err := c.BodyParser(&req); err != nil {
		metrics.IncRejected("bad_body")
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		metrics.IncRejected("bad_body")
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	vector, err := sensor.Build(req.Sensors)
	if err != nil {
		switch {
		case errors.Is(err, sensor.ErrInvalidSensorCount):
			metrics.IncRejected("sensor_count")
		case errors.Is(err, sensor.ErrInvalidSensorRange):
			metrics.IncRejected("sensor_range")
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	obs, source, err := h.resolveWeather(c, req)
	if err != nil {
		metrics.IncRejected("bad_weather")
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := h.engine.Decide(vector, obs)
	if err != nil {
		if errors.Is(err, irrigation.ErrMissingWeatherContext) {
			metrics.IncRejected("missing_weather")
			return fiber.NewError(fiber.StatusUnprocessableEntity, "missing weather context: supply weather manually or a city with available weather data")
		}
		h.logger.Error("decision failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to compute irrigation decision")
	}

	metrics.ObserveDecision(string(res.Category), string(res.Action), res.ZonesOn())
	metrics.IncWeatherSource(string(source))

	states := res.States()
	sprinklers := make([]sprinklerState, len(states))
	for i, s := range states {
		sprinklers[i] = sprinklerState{Zone: i, State: s}
	}

	resp := decisionResponse{
		DecisionID:    uuid.NewString(),
		Category:      res.Category,
		Action:        res.Action,
		Message:       res.Message,
		Icon:          res.Icon,
		Zones:         res.Zones,
		Sprinklers:    sprinklers,
		Weather:       obs,
		WeatherSource: source,
	}
	h.logger.Info("irrigation decision",
		"decision_id", resp.DecisionID,
		"category", res.Category,
		"zones_on", res.ZonesOn(),
		"weather_source", source,
	)
	return c.JSON(resp)
}

// resolveWeather applies the caller-side fallback: explicit weather first, then the
// cached or live observation for the requested city. A nil observation with a nil
// error means no weather could be found.
func (h *decisionHandler) resolveWeather(c *fiber.Ctx, req decisionRequest) (*weather.Observation, weather.Source, error) {
	if req.Weather != nil {
		obs, err := weather.NewObservation(*req.Weather.Temperature, *req.Weather.Humidity, *req.Weather.Rain)
		if err != nil {
			return nil, "", err
		}
		return &obs, weather.SourceManual, nil
	}

	if req.City == "" || h.weather == nil {
		return nil, "", nil
	}

	loc := weather.Location{City: req.City, Country: req.Country}
	obs, source, err := h.weather.Resolve(c.UserContext(), loc)
	if err != nil {
		h.logger.Warn("weather unavailable for decision", "location", loc.Key(), "error", err)
		return nil, "", nil
	}
	return &obs, source, nil
}
