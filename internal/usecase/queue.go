package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ComplianceQueue/internal/domain"
	"ComplianceQueue/internal/ports"
)

// Queue drives the review lifecycle of compliance artifacts: pending rows
// are approved or disapproved by a human, approved rows feed the pipeline.
type Queue struct {
	store  ports.ArtifactStore
	prober ports.NameProber
	logger *slog.Logger
}

// NewQueue wires the store and the optional name prober.
func NewQueue(store ports.ArtifactStore, prober ports.NameProber, logger *slog.Logger) *Queue {
	return &Queue{store: store, prober: prober, logger: logger}
}

// Enqueue registers a new artifact in pending state.
func (q *Queue) Enqueue(ctx context.Context, nameOrigin, url string) (domain.Artifact, error) {
	artifact := domain.Artifact{
		ID:         uuid.NewString(),
		NameOrigin: nameOrigin,
		URL:        url,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	stored, err := q.store.Enqueue(ctx, artifact)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("enqueue artifact: %w", err)
	}

	q.debug("artifact enqueued", "id", stored.ID, "name", stored.NameOrigin)
	return stored, nil
}

// List returns the full queue, newest first.
func (q *Queue) List(ctx context.Context) ([]domain.Artifact, error) {
	artifacts, err := q.store.List(ctx, ports.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return artifacts, nil
}

// Approve marks the artifact eligible for the next pipeline run. Re-approving
// an already-approved artifact is a no-op success.
func (q *Queue) Approve(ctx context.Context, id string) (domain.Artifact, error) {
	artifact, err := q.store.SetStatus(ctx, id, domain.StatusApproved)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("approve artifact %s: %w", id, err)
	}

	q.debug("artifact approved", "id", id)
	return artifact, nil
}

// Disapprove removes the artifact permanently and returns its last snapshot.
func (q *Queue) Disapprove(ctx context.Context, id string) (domain.Artifact, error) {
	artifact, err := q.store.Delete(ctx, id)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("disapprove artifact %s: %w", id, err)
	}

	q.debug("artifact disapproved", "id", id)
	return artifact, nil
}

// Revert returns the artifact to pending, from any state. Callers must not
// revert an artifact that a pipeline run is currently scraping.
func (q *Queue) Revert(ctx context.Context, id string) (domain.Artifact, error) {
	artifact, err := q.store.SetStatus(ctx, id, domain.StatusPending)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("revert artifact %s: %w", id, err)
	}

	q.debug("artifact reverted", "id", id)
	return artifact, nil
}

// UpdateURL replaces the source location used by scrape attempts.
func (q *Queue) UpdateURL(ctx context.Context, id, url string) (domain.Artifact, error) {
	artifact, err := q.store.SetURL(ctx, id, url)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("update url for artifact %s: %w", id, err)
	}
	return artifact, nil
}

// UpdateName replaces the translated display name.
func (q *Queue) UpdateName(ctx context.Context, id, name string) (domain.Artifact, error) {
	artifact, err := q.store.SetTranslatedName(ctx, id, name)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("update name for artifact %s: %w", id, err)
	}
	return artifact, nil
}

// SuggestName fetches the artifact's source page and proposes a display name
// from its title.
func (q *Queue) SuggestName(ctx context.Context, id string) (string, error) {
	if q.prober == nil {
		return "", fmt.Errorf("name prober is not configured")
	}

	artifact, err := q.store.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load artifact %s: %w", id, err)
	}
	if artifact.URL == "" {
		return "", fmt.Errorf("artifact %s has no url to probe", id)
	}

	name, err := q.prober.SuggestName(ctx, artifact.URL)
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", artifact.URL, err)
	}
	return name, nil
}

func (q *Queue) debug(msg string, args ...any) {
	if q.logger != nil {
		q.logger.Debug(msg, args...)
	}
}
