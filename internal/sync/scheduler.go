package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs RunSync periodically in the background.
type Scheduler struct {
	scheduler *gocron.Scheduler
	syncer    *Syncer
	interval  time.Duration
}

// NewScheduler creates a scheduler syncing every interval.
func NewScheduler(syncer *Syncer, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		syncer:    syncer,
		interval:  interval,
	}
}

// Start schedules the sync job, running it once right away. ctx bounds every
// run; cancel it and call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.scheduler.Every(s.interval).Do(s.run, ctx); err != nil {
		return fmt.Errorf("failed to schedule sync every %s: %w", s.interval, err)
	}
	s.scheduler.StartAsync()
	slog.Info("Periodic sync scheduled", "interval", s.interval)
	return nil
}

// Stop terminates the scheduled job, waiting for a running sync to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.syncer.RunSync(ctx); err != nil {
		slog.Error("Scheduled sync failed", "error", err)
	}
}
