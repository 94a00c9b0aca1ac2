package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ComplianceQueue/internal/domain"
	"ComplianceQueue/internal/ports"
)

// Scheduler wires the interval driver with recurring pipeline runs and
// publishes a digest of each run to the configured notifier.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, notifier ports.Notifier, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, notifier: notifier, logger: logger}
}

// Start registers the pipeline with the provided scheduler driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report, err := s.pipeline.Run(ctx)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
			}
			return
		}

		if s.notifier == nil || report.Total == 0 {
			return
		}
		if err := s.notifier.PublishDigest(ctx, buildRunDigest(report)); err != nil && s.logger != nil {
			s.logger.Warn("publish run digest", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func buildRunDigest(report domain.Report) string {
	digest := fmt.Sprintf("Scrape batch: %d processed, %d succeeded, %d failed\n",
		report.Total, report.Succeeded, report.Failed)

	for _, failure := range report.Failures {
		digest += fmt.Sprintf("- %s: %s\n", failure.Name, failure.Error)
	}

	return digest
}
