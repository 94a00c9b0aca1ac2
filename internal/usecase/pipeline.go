package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ComplianceQueue/internal/domain"
	"ComplianceQueue/internal/ports"
)

const (
	defaultResultLimit = 10
	defaultItemTimeout = 60 * time.Second
)

// PipelineDeps wires the store and scrape client into the batch orchestrator.
type PipelineDeps struct {
	Store       ports.ArtifactStore
	Scraper     ports.ScrapeClient
	Logger      *slog.Logger
	Workers     int
	ItemTimeout time.Duration
	ResultLimit int
}

// Pipeline executes one scrape batch over all currently approved artifacts.
//
// Each candidate is claimed (approved -> in_progress), scraped, and then
// either deleted (success) or reverted to approved (failure). One item's
// failure never aborts the run; the run itself fails only when the initial
// candidate listing cannot be read.
type Pipeline struct {
	store       ports.ArtifactStore
	scraper     ports.ScrapeClient
	logger      *slog.Logger
	workers     int
	itemTimeout time.Duration
	resultLimit int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	itemTimeout := deps.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = defaultItemTimeout
	}
	resultLimit := deps.ResultLimit
	if resultLimit <= 0 {
		resultLimit = defaultResultLimit
	}

	return &Pipeline{
		store:       deps.Store,
		scraper:     deps.Scraper,
		logger:      deps.Logger,
		workers:     workers,
		itemTimeout: itemTimeout,
		resultLimit: resultLimit,
	}
}

type outcomeKind int

const (
	outcomeSkipped outcomeKind = iota
	outcomeSucceeded
	outcomeFailed
)

type itemOutcome struct {
	kind    outcomeKind
	success domain.ItemSuccess
	failure domain.ItemFailure
}

// Run processes every approved artifact and returns the aggregate report.
// An empty candidate set is a success with a zero report.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	candidates, err := p.store.List(ctx, ports.ListFilter{Status: domain.StatusApproved})
	if err != nil {
		return domain.Report{}, fmt.Errorf("list approved artifacts: %w", err)
	}

	report := domain.Report{
		Successes: []domain.ItemSuccess{},
		Failures:  []domain.ItemFailure{},
	}

	if len(candidates) == 0 {
		p.debug("pipeline run with empty candidate set")
		return report, nil
	}

	p.debug("pipeline run started", "candidates", len(candidates), "workers", p.workers)

	// Outcomes land in candidate order so report lists stay ordered even
	// when workers finish out of order.
	outcomes := make([]itemOutcome, len(candidates))

	var group errgroup.Group
	group.SetLimit(p.workers)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		group.Go(func() error {
			outcomes[i] = p.process(ctx, candidate)
			return nil
		})
	}
	_ = group.Wait()

	for _, outcome := range outcomes {
		switch outcome.kind {
		case outcomeSucceeded:
			report.Successes = append(report.Successes, outcome.success)
		case outcomeFailed:
			report.Failures = append(report.Failures, outcome.failure)
		}
	}

	report.Succeeded = len(report.Successes)
	report.Failed = len(report.Failures)
	report.Total = report.Succeeded + report.Failed

	p.debug("pipeline run finished",
		"total", report.Total, "succeeded", report.Succeeded, "failed", report.Failed)

	return report, nil
}

// process drives a single candidate through claim, scrape, and its terminal
// transition. Claim losers are skipped and excluded from report totals.
func (p *Pipeline) process(ctx context.Context, artifact domain.Artifact) itemOutcome {
	name := artifact.DisplayName()

	claimed, err := p.store.ClaimApproved(ctx, artifact.ID)
	if err != nil {
		return failureOutcome(artifact.ID, name, err)
	}
	if !claimed {
		p.debug("candidate already claimed elsewhere", "id", artifact.ID)
		return itemOutcome{kind: outcomeSkipped}
	}

	req := ports.ScrapeRequest{
		CertificationName: name,
		Limit:             p.resultLimit,
		SaveToKB:          true,
	}
	if artifact.URL != "" {
		req.Domains = []string{artifact.URL}
	}

	data, err := p.scrape(ctx, req)
	if err != nil {
		p.debug("scrape failed", "id", artifact.ID, "name", name, "error", err)
		if _, revertErr := p.store.SetStatus(ctx, artifact.ID, domain.StatusApproved); revertErr != nil {
			// Row stays in_progress until the startup reclaim pass.
			p.warn("compensation failed", "id", artifact.ID, "error", revertErr)
		}
		return failureOutcome(artifact.ID, name, err)
	}

	if _, err := p.store.Delete(ctx, artifact.ID); err != nil {
		p.warn("scraped artifact could not be removed", "id", artifact.ID, "error", err)
		return failureOutcome(artifact.ID, name, err)
	}

	p.debug("scraped and removed", "id", artifact.ID, "name", name)
	return itemOutcome{
		kind:    outcomeSucceeded,
		success: domain.ItemSuccess{ID: artifact.ID, Name: name, Data: data},
	}
}

func (p *Pipeline) scrape(ctx context.Context, req ports.ScrapeRequest) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, p.itemTimeout)
	defer cancel()
	return p.scraper.Scrape(ctx, req)
}

func failureOutcome(id, name string, err error) itemOutcome {
	return itemOutcome{
		kind:    outcomeFailed,
		failure: domain.ItemFailure{ID: id, Name: name, Error: err.Error()},
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
