package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidObservation is returned for physically impossible weather values.
var ErrInvalidObservation = errors.New("invalid weather observation")

// Observation is the weather input to an irrigation decision: air temperature in °C,
// relative humidity in percent and rainfall over the trailing hour in mm.
// It is a value type; the fields cannot be changed after construction.
type Observation struct {
	temperature float64
	humidity    float64
	rain        float64
}

// NewObservation validates and builds an Observation.
func NewObservation(temperature, humidity, rain float64) (Observation, error) {
	fields := []struct {
		name  string
		value float64
	}{{"temperature", temperature}, {"humidity", humidity}, {"rain", rain}}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return Observation{}, fmt.Errorf("%w: %s is not a finite number", ErrInvalidObservation, f.name)
		}
	}
	if humidity < 0 || humidity > 100 {
		return Observation{}, fmt.Errorf("%w: humidity %v outside [0, 100]", ErrInvalidObservation, humidity)
	}
	if rain < 0 {
		return Observation{}, fmt.Errorf("%w: rain %v is negative", ErrInvalidObservation, rain)
	}
	return Observation{temperature: temperature, humidity: humidity, rain: rain}, nil
}

// ObservationFromSnapshot extracts the fields a decision needs from an aggregated snapshot.
func ObservationFromSnapshot(s WeatherSnapshot) (Observation, error) {
	return NewObservation(s.Temperature, s.Humidity, s.RainLastHr)
}

func (o Observation) Temperature() float64 { return o.temperature }
func (o Observation) Humidity() float64    { return o.humidity }
func (o Observation) Rain() float64        { return o.rain }

type observationJSON struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rain        float64 `json:"rain"`
}

// MarshalJSON implements json.Marshaler.
func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(observationJSON{Temperature: o.temperature, Humidity: o.humidity, Rain: o.rain})
}

func (o Observation) String() string {
	return fmt.Sprintf("temperature=%.1f°C humidity=%.0f%% rain=%.1fmm", o.temperature, o.humidity, o.rain)
}
