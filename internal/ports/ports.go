package ports

import (
	"context"
	"encoding/json"
	"time"

	"ComplianceQueue/internal/domain"
)

// ListFilter narrows artifact listings; the zero value lists everything.
type ListFilter struct {
	Status domain.Status
}

// ArtifactStore persists queued compliance artifacts. Listings are ordered
// by creation time, newest first.
type ArtifactStore interface {
	Enqueue(ctx context.Context, artifact domain.Artifact) (domain.Artifact, error)
	Get(ctx context.Context, id string) (domain.Artifact, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Artifact, error)
	SetStatus(ctx context.Context, id string, status domain.Status) (domain.Artifact, error)
	SetURL(ctx context.Context, id, url string) (domain.Artifact, error)
	SetTranslatedName(ctx context.Context, id, name string) (domain.Artifact, error)
	Delete(ctx context.Context, id string) (domain.Artifact, error)

	// ClaimApproved transitions id from approved to in_progress, but only
	// if the row is still approved. Returns false when another run already
	// claimed (or removed) the artifact.
	ClaimApproved(ctx context.Context, id string) (bool, error)

	// ReclaimStale reverts in_progress rows untouched for longer than
	// olderThan back to approved; returns how many rows were reverted.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// ScrapeRequest is the payload contract of the external scrape service.
type ScrapeRequest struct {
	CertificationName string
	Domains           []string
	Limit             int
	SaveToKB          bool
}

// ScrapeClient calls the external service that retrieves compliance content
// and persists it to the knowledge base. The returned payload is opaque.
type ScrapeClient interface {
	Scrape(ctx context.Context, req ScrapeRequest) (json.RawMessage, error)
}

// NameProber suggests a display name for a source URL.
type NameProber interface {
	SuggestName(ctx context.Context, url string) (string, error)
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
