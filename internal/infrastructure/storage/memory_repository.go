package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ComplianceQueue/internal/domain"
	"ComplianceQueue/internal/ports"
)

// MemoryRepository is an in-memory ArtifactStore for tests and local runs.
// All transitions happen under one mutex, so claims are atomic.
type MemoryRepository struct {
	mu        sync.Mutex
	artifacts map[string]domain.Artifact
	touched   map[string]time.Time
}

var _ ports.ArtifactStore = (*MemoryRepository)(nil)

// NewMemoryRepository builds an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		artifacts: make(map[string]domain.Artifact),
		touched:   make(map[string]time.Time),
	}
}

// Enqueue stores a new artifact, filling in id, status, and creation time
// when the caller left them empty.
func (m *MemoryRepository) Enqueue(_ context.Context, artifact domain.Artifact) (domain.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	if artifact.Status == "" {
		artifact.Status = domain.StatusPending
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}

	m.artifacts[artifact.ID] = artifact
	m.touched[artifact.ID] = time.Now().UTC()
	return artifact, nil
}

// Get loads a single artifact by id.
func (m *MemoryRepository) Get(_ context.Context, id string) (domain.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	artifact, ok := m.artifacts[id]
	if !ok {
		return domain.Artifact{}, domain.ErrNotFound
	}
	return artifact, nil
}

// List returns artifacts matching the filter, newest first.
func (m *MemoryRepository) List(_ context.Context, filter ports.ListFilter) ([]domain.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Artifact, 0, len(m.artifacts))
	for _, artifact := range m.artifacts {
		if filter.Status != "" && artifact.Status != filter.Status {
			continue
		}
		out = append(out, artifact)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// SetStatus updates the status of an existing artifact.
func (m *MemoryRepository) SetStatus(_ context.Context, id string, status domain.Status) (domain.Artifact, error) {
	return m.mutate(id, func(artifact *domain.Artifact) {
		artifact.Status = status
	})
}

// SetURL replaces the source location.
func (m *MemoryRepository) SetURL(_ context.Context, id, url string) (domain.Artifact, error) {
	return m.mutate(id, func(artifact *domain.Artifact) {
		artifact.URL = url
	})
}

// SetTranslatedName replaces the display name.
func (m *MemoryRepository) SetTranslatedName(_ context.Context, id, name string) (domain.Artifact, error) {
	return m.mutate(id, func(artifact *domain.Artifact) {
		artifact.NameTranslated = name
	})
}

// Delete removes the artifact and returns its last snapshot.
func (m *MemoryRepository) Delete(_ context.Context, id string) (domain.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	artifact, ok := m.artifacts[id]
	if !ok {
		return domain.Artifact{}, domain.ErrNotFound
	}

	delete(m.artifacts, id)
	delete(m.touched, id)
	return artifact, nil
}

// ClaimApproved transitions approved -> in_progress atomically.
func (m *MemoryRepository) ClaimApproved(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	artifact, ok := m.artifacts[id]
	if !ok || artifact.Status != domain.StatusApproved {
		return false, nil
	}

	artifact.Status = domain.StatusInProgress
	m.artifacts[id] = artifact
	m.touched[id] = time.Now().UTC()
	return true, nil
}

// ReclaimStale reverts in_progress artifacts untouched for longer than olderThan.
func (m *MemoryRepository) ReclaimStale(_ context.Context, olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	reclaimed := 0
	for id, artifact := range m.artifacts {
		if artifact.Status != domain.StatusInProgress {
			continue
		}
		if touched, ok := m.touched[id]; ok && !touched.Before(cutoff) {
			continue
		}
		artifact.Status = domain.StatusApproved
		m.artifacts[id] = artifact
		m.touched[id] = time.Now().UTC()
		reclaimed++
	}

	return reclaimed, nil
}

func (m *MemoryRepository) mutate(id string, apply func(*domain.Artifact)) (domain.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	artifact, ok := m.artifacts[id]
	if !ok {
		return domain.Artifact{}, domain.ErrNotFound
	}

	apply(&artifact)
	m.artifacts[id] = artifact
	m.touched[id] = time.Now().UTC()
	return artifact, nil
}
