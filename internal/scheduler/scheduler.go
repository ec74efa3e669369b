package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/airspace-emissions/internal/chart"
	"github.com/i474232898/airspace-emissions/internal/emissions"
)

// Scheduler periodically polls emission readings for configured airspaces.
type Scheduler struct {
	scheduler     *gocron.Scheduler
	service       *emissions.Service
	airspaces     []chart.EntityID
	interval      time.Duration
	historyWindow time.Duration
	now           func() time.Time
}

// New creates a new Scheduler.
func New(airspaces []chart.EntityID, interval, historyWindow time.Duration, service *emissions.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:     s,
		service:       service,
		airspaces:     airspaces,
		interval:      interval,
		historyWindow: historyWindow,
		now:           time.Now,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first poll runs immediately.
func (s *Scheduler) Start() error {
	if len(s.airspaces) == 0 {
		log.Info("scheduler: no airspaces configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(func() {
		s.Poll(context.Background(), s.now())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Poll fetches every airspace once. All airspaces share one stamp so their
// readings line up on identical timestamps.
func (s *Scheduler) Poll(ctx context.Context, now time.Time) {
	stamp := time.Unix(now.Unix(), 0)
	window := emissions.Window{To: stamp}
	if s.historyWindow > 0 {
		window.From = stamp.Add(-s.historyWindow)
	}

	logger := log.WithFields(log.Fields{"stamp": stamp.Unix(), "airspaces": len(s.airspaces)})
	logger.Info("scheduler: running emission fetch job")

	var wg sync.WaitGroup
	for _, a := range s.airspaces {
		wg.Add(1)
		go func(a chart.EntityID) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if err := s.service.FetchAndStore(ctx, a, window); err != nil {
				logger.WithError(err).WithField("airspace", a).Error("scheduler: fetch failed")
			}
		}(a)
	}
	wg.Wait()
	logger.Info("scheduler: completed emission fetch job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
