package model

import (
	"fmt"
	"math"

	"github.com/i474232898/smart-sprinkler/internal/sensor"
)

// DefaultThreshold is the probability cut-off used when an artifact does not set one.
const DefaultThreshold = 0.5

// ZoneWeights is the logistic unit for a single zone.
type ZoneWeights struct {
	Bias    float64   `yaml:"bias"`
	Weights []float64 `yaml:"weights"`
}

// LinearModel is a one-vs-rest logistic classifier, one unit per zone.
// It holds no mutable state, so concurrent Predict calls are safe.
type LinearModel struct {
	Name      string        `yaml:"name"`
	Version   string        `yaml:"version"`
	Threshold float64       `yaml:"threshold"`
	Zones     []ZoneWeights `yaml:"zones"`
}

// Validate checks the shape of the model.
func (m *LinearModel) Validate() error {
	if len(m.Zones) != sensor.Zones {
		return fmt.Errorf("model %q: got %d zones, want %d", m.Name, len(m.Zones), sensor.Zones)
	}
	for i, z := range m.Zones {
		if len(z.Weights) != sensor.Zones {
			return fmt.Errorf("model %q: zone %d has %d weights, want %d", m.Name, i, len(z.Weights), sensor.Zones)
		}
		if !finite(z.Bias) {
			return fmt.Errorf("model %q: zone %d bias %v is not finite", m.Name, i, z.Bias)
		}
		for j, w := range z.Weights {
			if !finite(w) {
				return fmt.Errorf("model %q: zone %d weight %d is %v", m.Name, i, j, w)
			}
		}
	}
	if !finite(m.Threshold) || m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("model %q: threshold %v outside (0, 1)", m.Name, m.Threshold)
	}
	return nil
}

// Predict implements Classifier.
func (m *LinearModel) Predict(values [sensor.Zones]float64) ([]bool, error) {
	out := make([]bool, len(m.Zones))
	for i, z := range m.Zones {
		if len(z.Weights) != len(values) {
			return nil, fmt.Errorf("zone %d: weight count %d does not match input %d", i, len(z.Weights), len(values))
		}
		logit := z.Bias
		for j, w := range z.Weights {
			logit += w * values[j]
		}
		out[i] = sigmoid(logit) >= m.Threshold
	}
	return out, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
