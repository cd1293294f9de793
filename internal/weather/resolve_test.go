package weather_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/smart-sprinkler/internal/irrigation"
	"github.com/i474232898/smart-sprinkler/internal/store"
	"github.com/i474232898/smart-sprinkler/internal/weather"
)

type fixedProvider struct {
	name string
	rain float64
}

func (p fixedProvider) Name() string { return p.name }

func (p fixedProvider) Fetch(context.Context, weather.Location) (weather.ProviderReading, error) {
	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    time.Now().UTC(),
		TemperatureC: 28,
		HumidityPct:  60,
		RainLastHrMm: p.rain,
	}, nil
}

func TestHeavyRainFromOneProviderForcesOff(t *testing.T) {
	svc := weather.NewService(
		store.NewMemoryStore(10, time.Hour),
		[]weather.Provider{fixedProvider{name: "openweather", rain: 3}, fixedProvider{name: "weatherapi", rain: 0}},
		time.Minute,
		nil,
	)

	obs, src, err := svc.Resolve(context.Background(), weather.Location{City: "Pune", Country: "IN"})
	require.NoError(t, err)
	assert.Equal(t, weather.SourceLive, src)

	rule := irrigation.Evaluate(obs)
	assert.Equal(t, irrigation.CategoryRain, rule.Category)
	assert.Equal(t, irrigation.ActionForceOff, rule.Action)
}
