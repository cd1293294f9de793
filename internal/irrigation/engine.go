package irrigation

import (
	"errors"
	"fmt"

	"github.com/i474232898/smart-sprinkler/internal/model"
	"github.com/i474232898/smart-sprinkler/internal/sensor"
	"github.com/i474232898/smart-sprinkler/internal/weather"
)

// ErrMissingWeatherContext is returned when a decision is requested without weather.
// The engine never substitutes default weather.
var ErrMissingWeatherContext = errors.New("missing weather context")

// Predictor produces the raw per-zone prediction. *model.Adapter implements it.
type Predictor interface {
	Predict(v sensor.Vector) (model.Prediction, error)
}

// Result is the final actuation decision.
type Result struct {
	Zones    [sensor.Zones]bool `json:"zones"`
	Category Category           `json:"category"`
	Action   Action             `json:"action"`
	Message  string             `json:"message"`
	Icon     string             `json:"icon"`
}

// States renders each zone as "ON" or "OFF".
func (r Result) States() [sensor.Zones]string {
	var out [sensor.Zones]string
	for i, on := range r.Zones {
		if on {
			out[i] = "ON"
		} else {
			out[i] = "OFF"
		}
	}
	return out
}

// ZonesOn counts the zones left switched on.
func (r Result) ZonesOn() int {
	n := 0
	for _, on := range r.Zones {
		if on {
			n++
		}
	}
	return n
}

// Compose merges the prediction with the fired rule. ForceOff clears every zone;
// PassThrough copies the prediction unchanged.
func Compose(p model.Prediction, r Rule) Result {
	res := Result{
		Category: r.Category,
		Action:   r.Action,
		Message:  r.Message,
		Icon:     r.Icon,
	}
	if r.Action != ActionForceOff {
		res.Zones = p.Zones()
	}
	return res
}

// Engine turns sensor readings and weather into a Result. It holds no per-call
// state and is safe for concurrent use as long as its Predictor is.
type Engine struct {
	predictor Predictor
}

// NewEngine builds an Engine around p.
func NewEngine(p Predictor) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: engine needs a predictor", model.ErrModelUnavailable)
	}
	return &Engine{predictor: p}, nil
}

// Decide evaluates one request. obs must be supplied by the caller.
func (e *Engine) Decide(v sensor.Vector, obs *weather.Observation) (Result, error) {
	if obs == nil {
		return Result{}, ErrMissingWeatherContext
	}

	prediction, err := e.predictor.Predict(v)
	if err != nil {
		return Result{}, err
	}

	return Compose(prediction, Evaluate(*obs)), nil
}
