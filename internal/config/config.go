package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/smart-sprinkler/internal/weather"
)

// ConfigErrorType classifies configuration failures.
type ConfigErrorType string

const (
	ErrParsing    ConfigErrorType = "PARSING"
	ErrValidation ConfigErrorType = "VALIDATION"
)

// ConfigError is returned by Load when the environment cannot produce a usable config.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

type AppConfig struct {
	Port     string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// ModelPath points at the classifier artifact; the service refuses to start without it.
	ModelPath string `envconfig:"MODEL_PATH" default:"models/farm_irrigation.yaml" validate:"required"`
	// ModelSerialize forces one inference at a time.
	ModelSerialize bool `envconfig:"MODEL_SERIALIZE" default:"false"`

	OpenWeatherAPIKey string `envconfig:"OPENWEATHER_API_KEY"`
	WeatherAPIKey     string `envconfig:"WEATHERAPI_API_KEY"`
	GeocoderAPIKey    string `envconfig:"GEOCODER_API_KEY"`

	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"5s" validate:"gt=0"`

	// FetchInterval controls how often we refresh weather for each location.
	FetchInterval time.Duration `envconfig:"FETCH_INTERVAL" default:"15m" validate:"gte=1m"`
	// MaxStaleness is how old a cached observation may be before a decision refetches it.
	MaxStaleness time.Duration `envconfig:"WEATHER_MAX_STALENESS" default:"30m" validate:"gte=0"`

	// In-memory store retention.
	StoreMaxHistory int           `envconfig:"STORE_MAX_HISTORY" default:"96" validate:"gte=0"` // roughly 24h at 15-minute intervals
	StoreMaxAge     time.Duration `envconfig:"STORE_MAX_AGE" default:"24h" validate:"gte=0"`

	LocationCities    string `envconfig:"WEATHER_LOCATION_CITY"`
	LocationCountries string `envconfig:"WEATHER_LOCATION_COUNTRY"`

	// Locations to keep warm in the cache.
	Locations []weather.Location `ignored:"true"`
}

// Load reads configuration from the environment (and a .env file when present).
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{Type: ErrParsing, Message: "failed to process environment configuration", Err: err}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{Type: ErrValidation, Message: "configuration validation failed", Err: err}
	}

	locs, err := parseLocations(cfg.LocationCities, cfg.LocationCountries)
	if err != nil {
		return nil, &ConfigError{Type: ErrValidation, Message: "invalid weather locations", Err: err}
	}
	cfg.Locations = locs

	return &cfg, nil
}

// SlogLevel maps LogLevel onto slog.
func (c *AppConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLocations(city, country string) ([]weather.Location, error) {
	if strings.TrimSpace(city) == "" {
		return nil, nil
	}
	cities := strings.Split(city, ",")
	countries := make([]string, len(cities))
	if strings.TrimSpace(country) != "" {
		countries = strings.Split(country, ",")
	}
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities (%d) and countries (%d) must be the same", len(cities), len(countries))
	}

	locs := make([]weather.Location, 0, len(cities))
	for i := range cities {
		c := strings.TrimSpace(cities[i])
		if c == "" {
			return nil, fmt.Errorf("empty city at position %d", i)
		}
		locs = append(locs, weather.Location{
			City:    c,
			Country: strings.TrimSpace(countries[i]),
		})
	}
	return locs, nil
}
