package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/smart-sprinkler/internal/weather"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEATHER_LOCATION_CITY", "")
	t.Setenv("WEATHER_LOCATION_COUNTRY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "models/farm_irrigation.yaml", cfg.ModelPath)
	assert.False(t, cfg.ModelSerialize)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 15*time.Minute, cfg.FetchInterval)
	assert.Equal(t, 30*time.Minute, cfg.MaxStaleness)
	assert.Equal(t, 96, cfg.StoreMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.Empty(t, cfg.Locations)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MODEL_PATH", "/srv/model.yaml.zst")
	t.Setenv("MODEL_SERIALIZE", "true")
	t.Setenv("FETCH_INTERVAL", "5m")
	t.Setenv("WEATHER_LOCATION_CITY", "Pune, Nashik")
	t.Setenv("WEATHER_LOCATION_COUNTRY", "IN,IN")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "/srv/model.yaml.zst", cfg.ModelPath)
	assert.True(t, cfg.ModelSerialize)
	assert.Equal(t, 5*time.Minute, cfg.FetchInterval)
	assert.Equal(t, []weather.Location{
		{City: "Pune", Country: "IN"},
		{City: "Nashik", Country: "IN"},
	}, cfg.Locations)
}

func TestLoadCitiesWithoutCountries(t *testing.T) {
	t.Setenv("WEATHER_LOCATION_CITY", "Pune")
	t.Setenv("WEATHER_LOCATION_COUNTRY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []weather.Location{{City: "Pune"}}, cfg.Locations)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]struct {
		env  map[string]string
		kind ConfigErrorType
	}{
		"bad duration":       {map[string]string{"HTTP_TIMEOUT": "soon"}, ErrParsing},
		"bad bool":           {map[string]string{"MODEL_SERIALIZE": "maybe"}, ErrParsing},
		"bad log level":      {map[string]string{"LOG_LEVEL": "loud"}, ErrValidation},
		"interval too short": {map[string]string{"FETCH_INTERVAL": "10s"}, ErrValidation},
		"mismatched locations": {map[string]string{
			"WEATHER_LOCATION_CITY":    "Pune,Nashik",
			"WEATHER_LOCATION_COUNTRY": "IN",
		}, ErrValidation},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.kind, cfgErr.Type)
		})
	}
}
