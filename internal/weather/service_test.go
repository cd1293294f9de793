package weather

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("not found")

// mapStore is a minimal Store keeping only the latest snapshot per location.
type mapStore struct {
	mu     sync.Mutex
	latest map[string]WeatherSnapshot
}

func newMapStore() *mapStore {
	return &mapStore{latest: make(map[string]WeatherSnapshot)}
}

func (s *mapStore) SaveSnapshot(loc Location, snapshot WeatherSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[loc.Key()] = snapshot
}

func (s *mapStore) GetLatest(loc Location) (WeatherSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.latest[loc.Key()]
	if !ok {
		return WeatherSnapshot{}, errNotFound
	}
	return snap, nil
}

func (s *mapStore) GetRange(loc Location, _, _ time.Time) ([]WeatherSnapshot, error) {
	snap, err := s.GetLatest(loc)
	if err != nil {
		return nil, err
	}
	return []WeatherSnapshot{snap}, nil
}

type stubProvider struct {
	name    string
	reading ProviderReading
	err     error
	age     time.Duration
	calls   atomic.Int32
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Fetch(context.Context, Location) (ProviderReading, error) {
	p.calls.Add(1)
	if p.err != nil {
		return ProviderReading{}, p.err
	}
	r := p.reading
	r.ProviderName = p.name
	r.Timestamp = time.Now().Add(-p.age).UTC()
	return r, nil
}

var pune = Location{City: "Pune", Country: "IN"}

func TestFetchAndStorePartialSuccess(t *testing.T) {
	st := newMapStore()
	good := &stubProvider{name: "good", reading: ProviderReading{TemperatureC: 30, HumidityPct: 40, RainLastHrMm: 0.5}}
	bad := &stubProvider{name: "bad", err: errors.New("503")}

	svc := NewService(st, []Provider{good, bad}, 0, nil)
	snap, err := svc.FetchAndStore(context.Background(), pune)
	require.NoError(t, err)
	assert.Equal(t, 30.0, snap.Temperature)
	assert.Len(t, snap.Providers, 1)

	stored, err := svc.GetLatest(pune)
	require.NoError(t, err)
	assert.Equal(t, snap.Temperature, stored.Temperature)
}

func TestFetchAndStoreAllFailKeepsLastGood(t *testing.T) {
	st := newMapStore()
	st.SaveSnapshot(pune, WeatherSnapshot{Location: pune, Temperature: 18, Timestamp: time.Now().UTC()})
	bad := &stubProvider{name: "bad", err: errors.New("timeout")}

	svc := NewService(st, []Provider{bad}, 0, nil)
	_, err := svc.FetchAndStore(context.Background(), pune)
	assert.ErrorIs(t, err, ErrNoReadings)

	stored, err := st.GetLatest(pune)
	require.NoError(t, err)
	assert.Equal(t, 18.0, stored.Temperature)
}

func TestFetchAndStoreNoProviders(t *testing.T) {
	svc := NewService(newMapStore(), nil, 0, nil)
	_, err := svc.FetchAndStore(context.Background(), pune)
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestResolveUsesFreshCache(t *testing.T) {
	st := newMapStore()
	st.SaveSnapshot(pune, WeatherSnapshot{Location: pune, Temperature: 22, Humidity: 90, RainLastHr: 0, Timestamp: time.Now().UTC()})
	p := &stubProvider{name: "p", reading: ProviderReading{TemperatureC: 40}}

	svc := NewService(st, []Provider{p}, 30*time.Minute, nil)
	obs, src, err := svc.Resolve(context.Background(), pune)
	require.NoError(t, err)
	assert.Equal(t, SourceCached, src)
	assert.Equal(t, 22.0, obs.Temperature())
	assert.Zero(t, p.calls.Load())
}

func TestResolveRefreshesStaleCache(t *testing.T) {
	st := newMapStore()
	st.SaveSnapshot(pune, WeatherSnapshot{Location: pune, Temperature: 22, Timestamp: time.Now().Add(-2 * time.Hour)})
	p := &stubProvider{name: "p", reading: ProviderReading{TemperatureC: 36, HumidityPct: 30}}

	svc := NewService(st, []Provider{p}, 30*time.Minute, nil)
	obs, src, err := svc.Resolve(context.Background(), pune)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, src)
	assert.Equal(t, 36.0, obs.Temperature())
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestResolveFailsWithoutData(t *testing.T) {
	p := &stubProvider{name: "p", err: errors.New("down")}
	svc := NewService(newMapStore(), []Provider{p}, time.Minute, nil)

	_, _, err := svc.Resolve(context.Background(), pune)
	assert.ErrorIs(t, err, ErrNoReadings)
}

func TestResolveCachesByFetchTime(t *testing.T) {
	// The provider's observation is older than the staleness window, but it was just fetched.
	p := &stubProvider{name: "p", age: 2 * time.Hour, reading: ProviderReading{TemperatureC: 27, HumidityPct: 60}}
	svc := NewService(newMapStore(), []Provider{p}, 30*time.Minute, nil)

	_, src, err := svc.Resolve(context.Background(), pune)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, src)

	_, src, err = svc.Resolve(context.Background(), pune)
	require.NoError(t, err)
	assert.Equal(t, SourceCached, src)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestResolveKeepsWettestRainAcrossProviders(t *testing.T) {
	wet := &stubProvider{name: "wet", reading: ProviderReading{TemperatureC: 28, HumidityPct: 60, RainLastHrMm: 3}}
	dry := &stubProvider{name: "dry", reading: ProviderReading{TemperatureC: 28, HumidityPct: 60, RainLastHrMm: 0}}
	svc := NewService(newMapStore(), []Provider{wet, dry}, time.Minute, nil)

	obs, _, err := svc.Resolve(context.Background(), pune)
	require.NoError(t, err)
	assert.Equal(t, 3.0, obs.Rain())
}
