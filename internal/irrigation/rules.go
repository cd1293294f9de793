package irrigation

import "github.com/i474232898/smart-sprinkler/internal/weather"

// Action is what a fired rule does to the classifier output.
type Action string

const (
	// ActionForceOff switches every zone off, discarding the prediction.
	ActionForceOff Action = "force-off"
	// ActionPassThrough keeps the prediction and only annotates the result.
	ActionPassThrough Action = "pass-through"
)

// Category tags the weather regime that decided the result.
type Category string

const (
	CategoryRain      Category = "rain"
	CategoryMoisture  Category = "moisture"
	CategoryHotDry    Category = "hot-dry"
	CategoryLightRain Category = "light-rain"
	CategoryNormal    Category = "normal"
)

// Rule is one row of the weather override table.
type Rule struct {
	Priority    int      `json:"priority"`
	Category    Category `json:"category"`
	Action      Action   `json:"action"`
	Message     string   `json:"message"`
	Icon        string   `json:"icon"`
	Description string   `json:"condition"`

	matches func(weather.Observation) bool
}

// Matches reports whether the rule's predicate holds for obs. A Rule built outside
// this package has no predicate and never matches.
func (r Rule) Matches(obs weather.Observation) bool {
	if r.matches == nil {
		return false
	}
	return r.matches(obs)
}

// rules is evaluated top-down; the first match wins, so a row only ever sees
// observations every earlier row rejected. The last row always matches.
var rules = []Rule{
	{
		Priority:    1,
		Category:    CategoryRain,
		Action:      ActionForceOff,
		Message:     "High rain detected: sprinklers turned off due to high moisture",
		Icon:        "💧",
		Description: "rain > 2 mm in the last hour",
		matches: func(o weather.Observation) bool {
			return o.Rain() > 2
		},
	},
	{
		Priority:    2,
		Category:    CategoryMoisture,
		Action:      ActionForceOff,
		Message:     "High moisture and low temperature detected: sprinklers turned off",
		Icon:        "💧",
		Description: "humidity > 85% and temperature < 25°C",
		matches: func(o weather.Observation) bool {
			return o.Humidity() > 85 && o.Temperature() < 25
		},
	},
	{
		Priority:    3,
		Category:    CategoryHotDry,
		Action:      ActionPassThrough,
		Message:     "Hot/dry conditions detected: more irrigation required",
		Icon:        "🔥",
		Description: "temperature > 35°C or humidity < 50%",
		matches: func(o weather.Observation) bool {
			return o.Temperature() > 35 || o.Humidity() < 50
		},
	},
	{
		Priority:    4,
		Category:    CategoryLightRain,
		Action:      ActionPassThrough,
		Message:     "Light rain detected: irrigate less (some natural moisture present)",
		Icon:        "🌦️",
		Description: "0 < rain <= 2 mm, or 75% <= humidity <= 85%",
		matches: func(o weather.Observation) bool {
			return (o.Rain() > 0 && o.Rain() <= 2) || (o.Humidity() >= 75 && o.Humidity() <= 85)
		},
	},
	{
		Priority:    5,
		Category:    CategoryNormal,
		Action:      ActionPassThrough,
		Message:     "Normal irrigation",
		Icon:        "✅",
		Description: "otherwise",
		matches: func(weather.Observation) bool {
			return true
		},
	},
}

// Rules returns a copy of the override table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Evaluate returns the first rule whose predicate holds for obs.
func Evaluate(obs weather.Observation) Rule {
	for _, r := range rules {
		if r.matches(obs) {
			return r
		}
	}
	// Unreachable: the final rule always matches.
	return rules[len(rules)-1]
}
