package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rahul3002/Time-Travel-Booking/internal/entity"
	"github.com/rahul3002/Time-Travel-Booking/internal/service"
)

// Scheduler triggers the daily capsule batch: once at the next local
// midnight, then on every tick of the configured interval. At most one run
// is in flight at any moment; overlapping triggers are skipped.
type Scheduler struct {
	batch    service.BatchService
	interval time.Duration
	running  atomic.Bool
}

func NewScheduler(batch service.BatchService, interval time.Duration) *Scheduler {
	return &Scheduler{
		batch:    batch,
		interval: interval,
	}
}

// TimeUntilNextMidnight returns the delay between now and 00:00:00 of the
// following calendar day in now's location.
func TimeUntilNextMidnight(now time.Time) time.Duration {
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	return midnight.Sub(now)
}

// Start blocks until ctx is cancelled, firing the batch at the next midnight
// and then once per interval.
func (s *Scheduler) Start(ctx context.Context) {
	timer := time.NewTimer(TimeUntilNextMidnight(time.Now()))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		s.trigger(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.trigger(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunNow fires a batch run outside the regular cadence. Returns
// entity.ErrBatchRunning when a run is already in progress. The run itself is
// asynchronous and never cancelled once started.
func (s *Scheduler) RunNow() error {
	if !s.run(context.Background()) {
		return entity.ErrBatchRunning
	}
	return nil
}

func (s *Scheduler) trigger(ctx context.Context) {
	if !s.run(ctx) {
		logrus.Warn("Daily batch still in progress, skipping scheduled run")
	}
}

// run acquires the in-progress flag and processes the batch in a background
// goroutine. The flag is always released, a panic inside the run included,
// so a failed run cannot wedge the scheduler. The batch context is detached
// from the trigger's: a run that has started always finishes, even when the
// scheduler itself is being stopped.
func (s *Scheduler) run(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}

	ctx = context.WithoutCancel(ctx)

	go func() {
		defer s.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("Daily batch run panicked: %v", r)
			}
		}()

		start := time.Now()
		logrus.Info("Starting daily capsule processing")

		if err := s.batch.ProcessDailyCapsules(ctx); err != nil {
			logrus.Errorf("Daily capsule processing failed: %v", err)
			return
		}

		logrus.Infof("Daily capsule processing completed in %s", time.Since(start))
	}()

	return true
}
