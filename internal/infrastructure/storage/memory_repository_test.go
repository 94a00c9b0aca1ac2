package storage

import (
	"context"
	"testing"
	"time"

	"ComplianceQueue/internal/domain"
	"ComplianceQueue/internal/ports"
)

func TestMemoryEnqueueDefaults(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	artifact, err := repo.Enqueue(context.Background(), domain.Artifact{NameOrigin: "ISO 9001"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if artifact.ID == "" {
		t.Fatal("expected generated id")
	}
	if artifact.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", artifact.Status)
	}
	if artifact.CreatedAt.IsZero() {
		t.Fatal("expected creation timestamp")
	}
}

func TestMemoryListNewestFirst(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	base := time.Now().UTC()
	ctx := context.Background()

	for i, name := range []string{"oldest", "middle", "newest"} {
		_, err := repo.Enqueue(ctx, domain.Artifact{
			NameOrigin: name,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("enqueue %s: %v", name, err)
		}
	}

	artifacts, err := repo.List(ctx, ports.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("expected 3 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].NameOrigin != "newest" || artifacts[2].NameOrigin != "oldest" {
		t.Fatalf("unexpected order: %s, %s, %s",
			artifacts[0].NameOrigin, artifacts[1].NameOrigin, artifacts[2].NameOrigin)
	}
}

func TestMemoryListByStatus(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()

	approved, _ := repo.Enqueue(ctx, domain.Artifact{NameOrigin: "a", Status: domain.StatusApproved})
	_, _ = repo.Enqueue(ctx, domain.Artifact{NameOrigin: "b", Status: domain.StatusPending})

	artifacts, err := repo.List(ctx, ports.ListFilter{Status: domain.StatusApproved})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].ID != approved.ID {
		t.Fatalf("expected only the approved artifact, got %d rows", len(artifacts))
	}
}

func TestMemoryClaimIsConditional(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()

	pending, _ := repo.Enqueue(ctx, domain.Artifact{NameOrigin: "p"})
	if claimed, err := repo.ClaimApproved(ctx, pending.ID); err != nil || claimed {
		t.Fatalf("pending artifact must not be claimable (claimed=%v err=%v)", claimed, err)
	}

	approved, _ := repo.Enqueue(ctx, domain.Artifact{NameOrigin: "a", Status: domain.StatusApproved})

	claimed, err := repo.ClaimApproved(ctx, approved.ID)
	if err != nil || !claimed {
		t.Fatalf("first claim should win (claimed=%v err=%v)", claimed, err)
	}

	claimed, err = repo.ClaimApproved(ctx, approved.ID)
	if err != nil || claimed {
		t.Fatalf("second claim must lose (claimed=%v err=%v)", claimed, err)
	}

	artifact, err := repo.Get(ctx, approved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if artifact.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", artifact.Status)
	}

	if claimed, _ := repo.ClaimApproved(ctx, "missing"); claimed {
		t.Fatal("claim on unknown id must lose")
	}
}

func TestMemoryDeleteReturnsSnapshot(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()

	artifact, _ := repo.Enqueue(ctx, domain.Artifact{NameOrigin: "HIPAA", URL: "https://example.com"})

	snapshot, err := repo.Delete(ctx, artifact.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if snapshot.NameOrigin != "HIPAA" || snapshot.URL != "https://example.com" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	if _, err := repo.Get(ctx, artifact.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := repo.Delete(ctx, artifact.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestMemoryReclaimStale(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()

	stale, _ := repo.Enqueue(ctx, domain.Artifact{NameOrigin: "stale", Status: domain.StatusApproved})
	if claimed, _ := repo.ClaimApproved(ctx, stale.ID); !claimed {
		t.Fatal("claim should win")
	}
	_, _ = repo.Enqueue(ctx, domain.Artifact{NameOrigin: "untouched", Status: domain.StatusApproved})

	time.Sleep(10 * time.Millisecond)

	reclaimed, err := repo.ReclaimStale(ctx, time.Millisecond)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed row, got %d", reclaimed)
	}

	artifact, _ := repo.Get(ctx, stale.ID)
	if artifact.Status != domain.StatusApproved {
		t.Fatalf("expected approved after reclaim, got %s", artifact.Status)
	}
}
