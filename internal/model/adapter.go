package model

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/smart-sprinkler/internal/metrics"
	"github.com/i474232898/smart-sprinkler/internal/sensor"
)

var (
	// ErrModelUnavailable means no classifier could be loaded. It is fatal at startup.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrBadPrediction means the classifier returned output that does not line up with the zones.
	ErrBadPrediction = errors.New("classifier returned malformed prediction")
)

// Classifier is any pretrained binary classifier over the per-zone sensor readings.
// It returns one on/off flag per zone.
type Classifier interface {
	Predict(values [sensor.Zones]float64) ([]bool, error)
}

// Prediction is the raw per-zone classifier output. Only an Adapter produces one.
type Prediction struct {
	zones [sensor.Zones]bool
}

// Zones returns a copy of the per-zone flags.
func (p Prediction) Zones() [sensor.Zones]bool {
	return p.zones
}

// Zone reports the flag for zone i.
func (p Prediction) Zone(i int) bool {
	return p.zones[i]
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithSerializedAccess guards the classifier with a mutex, for implementations that
// cannot serve concurrent reads.
func WithSerializedAccess() Option {
	return func(a *Adapter) {
		a.mu = &sync.Mutex{}
	}
}

// Adapter wraps a Classifier and enforces the shape of its output.
type Adapter struct {
	classifier Classifier
	mu         *sync.Mutex
}

// NewAdapter wraps c. A nil classifier is reported as ErrModelUnavailable.
func NewAdapter(c Classifier, opts ...Option) (*Adapter, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: no classifier provided", ErrModelUnavailable)
	}
	a := &Adapter{classifier: c}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Predict runs the classifier on v.
func (a *Adapter) Predict(v sensor.Vector) (Prediction, error) {
	start := time.Now()
	raw, err := a.predict(v.Values())
	metrics.ObserveInference(err, time.Since(start))
	if err != nil {
		return Prediction{}, fmt.Errorf("classifier predict: %w", err)
	}
	if len(raw) != sensor.Zones {
		return Prediction{}, fmt.Errorf("%w: got %d flags, want %d", ErrBadPrediction, len(raw), sensor.Zones)
	}

	var p Prediction
	copy(p.zones[:], raw)
	return p, nil
}

func (a *Adapter) predict(values [sensor.Zones]float64) ([]bool, error) {
	if a.mu != nil {
		a.mu.Lock()
		defer a.mu.Unlock()
	}
	return a.classifier.Predict(values)
}
