package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/smart-sprinkler/internal/weather"
)

const defaultInterval = 15 * time.Minute

// Refresher fetches and caches weather for one location. *weather.Service implements it.
type Refresher interface {
	FetchAndStore(ctx context.Context, loc weather.Location) (weather.WeatherSnapshot, error)
}

// Scheduler periodically refreshes the weather cache for configured locations so
// decisions can be served from cached observations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	locations []weather.Location
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, refresher Refresher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		locations: locations,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("no locations configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.period()).Do(func() { s.RunOnce() })
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// period is the refresh interval, defaulting to 15 minutes when unset.
func (s *Scheduler) period() time.Duration {
	if s.interval <= 0 {
		return defaultInterval
	}
	return s.interval
}

// RunOnce refreshes every location concurrently and returns how many succeeded.
func (s *Scheduler) RunOnce() int {
	s.logger.Info("running weather refresh", "locations", len(s.locations))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ok := make([]bool, len(s.locations))
	var g errgroup.Group
	for i, loc := range s.locations {
		g.Go(func() error {
			if _, err := s.refresher.FetchAndStore(ctx, loc); err != nil {
				s.logger.Warn("weather refresh failed", "location", loc.Key(), "error", err)
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, v := range ok {
		if v {
			n++
		}
	}
	s.logger.Info("completed weather refresh", "succeeded", n, "locations", len(s.locations))
	return n
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
