package sensor

import (
	"errors"
	"fmt"
	"math"
)

// Zones is the number of irrigation zones, and so the length of every sensor vector.
const Zones = 20

var (
	// ErrInvalidSensorCount is returned when the input does not hold exactly one value per zone.
	ErrInvalidSensorCount = errors.New("invalid sensor count")
	// ErrInvalidSensorRange is returned when a reading falls outside [0, 1].
	ErrInvalidSensorRange = errors.New("invalid sensor range")
)

// Vector holds one scaled reading per zone. Position i is zone i.
type Vector struct {
	values [Zones]float64
}

// Build validates values and copies them into a Vector.
// Out-of-range readings are rejected, never clamped.
func Build(values []float64) (Vector, error) {
	if len(values) != Zones {
		return Vector{}, fmt.Errorf("%w: got %d values, want %d", ErrInvalidSensorCount, len(values), Zones)
	}

	var v Vector
	for i, x := range values {
		if math.IsNaN(x) || x < 0 || x > 1 {
			return Vector{}, fmt.Errorf("%w: sensor %d has value %v, want [0, 1]", ErrInvalidSensorRange, i, x)
		}
		v.values[i] = x
	}
	return v, nil
}

// Values returns a copy of the readings.
func (v Vector) Values() [Zones]float64 {
	return v.values
}

// At returns the reading for zone i.
func (v Vector) At(i int) float64 {
	return v.values[i]
}
