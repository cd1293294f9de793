package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "sprinkler_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	decisionsTotal    *prometheus.CounterVec
	zonesOnTotal      prometheus.Counter
	rejectedTotal     *prometheus.CounterVec
	inferenceLatency  *prometheus.HistogramVec
	weatherFetchTotal *prometheus.CounterVec
	weatherFetchLat   *prometheus.HistogramVec
	weatherSourceHits *prometheus.CounterVec
)

// Init registers the service metrics with the default registry. Calling it more than once is a no-op.
func Init() {
	registerOnce.Do(func() {
		decisionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "decisions_total",
				Help: "Irrigation decisions by fired rule category and action",
			},
			[]string{"category", "action"},
		)
		zonesOnTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "zones_on_total",
				Help: "Zones switched on across all decisions",
			},
		)
		rejectedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "decisions_rejected_total",
				Help: "Decision requests rejected before a result was produced, by reason",
			},
			[]string{"reason"},
		)
		inferenceLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "inference_latency_seconds",
				Help:    "Classifier inference latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"result"},
		)
		weatherFetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "weather_fetch_total",
				Help: "Weather provider fetches by provider and result",
			},
			[]string{"provider", "result"},
		)
		weatherFetchLat = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "weather_fetch_latency_seconds",
				Help:    "Weather provider fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		)
		weatherSourceHits = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "weather_source_total",
				Help: "Where the weather observation for a decision came from",
			},
			[]string{"source"},
		)

		prometheus.MustRegister(
			decisionsTotal,
			zonesOnTotal,
			rejectedTotal,
			inferenceLatency,
			weatherFetchTotal,
			weatherFetchLat,
			weatherSourceHits,
		)
	})
}

// ObserveDecision records a completed decision.
func ObserveDecision(category, action string, zonesOn int) {
	if decisionsTotal != nil {
		decisionsTotal.WithLabelValues(category, action).Inc()
	}
	if zonesOnTotal != nil && zonesOn > 0 {
		zonesOnTotal.Add(float64(zonesOn))
	}
}

// IncRejected counts a decision request that failed validation or lacked context.
func IncRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if rejectedTotal != nil {
		rejectedTotal.WithLabelValues(reason).Inc()
	}
}

// ObserveInference records classifier latency.
func ObserveInference(err error, duration time.Duration) {
	if inferenceLatency != nil {
		inferenceLatency.WithLabelValues(result(err)).Observe(duration.Seconds())
	}
}

// ObserveWeatherFetch records a single provider call.
func ObserveWeatherFetch(provider string, err error, duration time.Duration) {
	if weatherFetchTotal != nil {
		weatherFetchTotal.WithLabelValues(provider, result(err)).Inc()
	}
	if weatherFetchLat != nil {
		weatherFetchLat.WithLabelValues(provider).Observe(duration.Seconds())
	}
}

// IncWeatherSource counts which weather source fed a decision.
func IncWeatherSource(source string) {
	if weatherSourceHits != nil {
		weatherSourceHits.WithLabelValues(source).Inc()
	}
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
