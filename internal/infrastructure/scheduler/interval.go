package scheduler

import (
	"context"
	"time"

	"ComplianceQueue/internal/ports"
)

// IntervalScheduler triggers pipeline runs on a fixed interval.
type IntervalScheduler struct {
	interval time.Duration
	runOnce  bool
	stop     chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler that fires every interval. When
// runImmediately is set, the job also fires once at startup.
func NewIntervalScheduler(interval time.Duration, runImmediately bool) *IntervalScheduler {
	return &IntervalScheduler{interval: interval, runOnce: runImmediately}
}

// Start launches the ticking goroutine.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil || s.interval <= 0 {
		return nil
	}

	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		if s.runOnce {
			job(time.Now())
		}
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
