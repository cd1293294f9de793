package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/smart-sprinkler/internal/weather"
)

// coordinates is a resolved latitude/longitude pair.
type coordinates struct {
	lat, lon float64
}

// geocodeFunc resolves a city to coordinates.
type geocodeFunc func(ctx context.Context, loc weather.Location) (coordinates, error)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// Open-Meteo only accepts coordinates, so city-only locations are geocoded once and remembered.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	geocode geocodeFunc

	mu     sync.RWMutex
	coords map[string]coordinates
}

// NewOpenMeteoProvider builds the provider. geocoderAPIKey is the Google Geocoding key used
// for locations without coordinates; when empty such locations are rejected.
func NewOpenMeteoProvider(client *http.Client, geocoderAPIKey string) *OpenMeteoProvider {
	p := &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("openmeteo"),
		coords:  make(map[string]coordinates),
	}
	if geocoderAPIKey != "" {
		geocoder.ApiKey = geocoderAPIKey
		p.geocode = googleGeocode
	}
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	c, err := p.resolve(ctx, loc)
	if err != nil {
		return weather.ProviderReading{}, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", c.lat))
		values.Set("longitude", fmt.Sprintf("%f", c.lon))
		values.Set("current", "temperature_2m,relative_humidity_2m,rain,weather_code,wind_speed_10m,surface_pressure")
		values.Set("wind_speed_unit", "ms")
		values.Set("timeformat", "unixtime")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Time        int64   `json:"time"`
			Temperature float64 `json:"temperature_2m"`
			Humidity    float64 `json:"relative_humidity_2m"`
			Rain        float64 `json:"rain"`
			WeatherCode int     `json:"weather_code"`
			WindSpeed   float64 `json:"wind_speed_10m"`
			Pressure    float64 `json:"surface_pressure"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, fmt.Errorf("decode openmeteo response: %w", err)
	}

	ts := time.Now().UTC()
	if payload.Current.Time > 0 {
		ts = time.Unix(payload.Current.Time, 0).UTC()
	}

	// Open-Meteo current "rain" sums the preceding 15 minutes, so it can only undercount the hour.
	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: payload.Current.Temperature,
		HumidityPct:  payload.Current.Humidity,
		WindSpeedMS:  payload.Current.WindSpeed,
		PressureHpa:  payload.Current.Pressure,
		RainLastHrMm: payload.Current.Rain,
		Condition:    mapOpenMeteoCondition(payload.Current.WeatherCode),
	}, nil
}

func (p *OpenMeteoProvider) resolve(ctx context.Context, loc weather.Location) (coordinates, error) {
	if loc.Lat != nil && loc.Lon != nil {
		return coordinates{lat: *loc.Lat, lon: *loc.Lon}, nil
	}

	p.mu.RLock()
	c, ok := p.coords[loc.Key()]
	p.mu.RUnlock()
	if ok {
		return c, nil
	}

	if p.geocode == nil {
		return coordinates{}, fmt.Errorf("openmeteo requires coordinates for %s and no geocoder is configured", loc.Key())
	}
	c, err := p.geocode(ctx, loc)
	if err != nil {
		return coordinates{}, fmt.Errorf("geocode %s: %w", loc.Key(), err)
	}

	p.mu.Lock()
	p.coords[loc.Key()] = c
	p.mu.Unlock()
	return c, nil
}

// googleGeocode calls the Google Geocoding API through kelvins/geocoder, which has no
// context support; the call runs in its own goroutine so ctx still bounds the wait.
func googleGeocode(ctx context.Context, loc weather.Location) (coordinates, error) {
	type result struct {
		c   coordinates
		err error
	}
	done := make(chan result, 1)

	go func() {
		found, err := geocoder.Geocoding(geocoder.Address{City: loc.City, Country: loc.Country})
		done <- result{c: coordinates{lat: found.Latitude, lon: found.Longitude}, err: err}
	}()

	select {
	case <-ctx.Done():
		return coordinates{}, ctx.Err()
	case r := <-done:
		return r.c, r.err
	}
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// WMO weather interpretation codes.
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
