package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/smart-sprinkler/internal/metrics"
)

var (
	// ErrNoProviders is returned when the service has nothing to fetch from.
	ErrNoProviders = errors.New("no weather providers configured")
	// ErrNoReadings is returned when every provider failed for a location.
	ErrNoReadings = errors.New("no successful provider readings")
)

// Source tells where a resolved observation came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceCached Source = "cached"
	SourceLive   Source = "live"
)

// Service orchestrates fetching from multiple providers and caching snapshots.
type Service struct {
	store        Store
	providers    []Provider
	maxStaleness time.Duration
	logger       *slog.Logger
}

// NewService creates a new Service. Cached snapshots older than maxStaleness are
// refreshed before use; zero means cached snapshots never go stale.
func NewService(store Store, providers []Provider, maxStaleness time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:        store,
		providers:    providers,
		maxStaleness: maxStaleness,
		logger:       logger.With("component", "weather"),
	}
}

// FetchAndStore fetches data from all providers concurrently for the given location,
// aggregates successful readings, and stores a snapshot.
// When every provider fails the last good snapshot is kept and ErrNoReadings is returned.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) (WeatherSnapshot, error) {
	if len(s.providers) == 0 {
		return WeatherSnapshot{}, ErrNoProviders
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []ProviderReading
	)

	for _, p := range s.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			r, err := p.Fetch(ctx, loc)
			metrics.ObserveWeatherFetch(p.Name(), err, time.Since(start))
			if err != nil {
				// Partial success is fine.
				s.logger.Warn("provider fetch failed", "provider", p.Name(), "location", loc.Key(), "error", err)
				return
			}

			mu.Lock()
			readings = append(readings, r)
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(readings) == 0 {
		s.logger.Warn("no successful provider readings; keeping last good snapshot", "location", loc.Key())
		return WeatherSnapshot{}, fmt.Errorf("%w for %s", ErrNoReadings, loc.Key())
	}

	snapshot := AggregateReadings(loc, readings)
	snapshot.FetchedAt = time.Now().UTC()
	s.store.SaveSnapshot(loc, snapshot)
	s.logger.Debug("stored weather snapshot", "location", loc.Key(), "providers", len(readings))
	return snapshot, nil
}

// Resolve returns an Observation for loc, preferring a fresh cached snapshot and
// falling back to a live fetch.
func (s *Service) Resolve(ctx context.Context, loc Location) (Observation, Source, error) {
	if latest, err := s.store.GetLatest(loc); err == nil && s.fresh(latest) {
		obs, err := ObservationFromSnapshot(latest)
		if err == nil {
			return obs, SourceCached, nil
		}
		s.logger.Warn("cached snapshot unusable", "location", loc.Key(), "error", err)
	}

	snapshot, err := s.FetchAndStore(ctx, loc)
	if err != nil {
		return Observation{}, "", err
	}
	obs, err := ObservationFromSnapshot(snapshot)
	if err != nil {
		return Observation{}, "", err
	}
	return obs, SourceLive, nil
}

// fresh measures age from FetchedAt, falling back to the observation time for
// snapshots stored without one.
func (s *Service) fresh(snap WeatherSnapshot) bool {
	if s.maxStaleness <= 0 {
		return true
	}
	at := snap.FetchedAt
	if at.IsZero() {
		at = snap.Timestamp
	}
	return time.Since(at) <= s.maxStaleness
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (WeatherSnapshot, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]WeatherSnapshot, error) {
	return s.store.GetRange(loc, from, to)
}
