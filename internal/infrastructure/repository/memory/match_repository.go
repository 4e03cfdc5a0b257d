// Package memory holds in-process repository implementations, used when no
// database is configured and as fixtures in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/matchpulse/match-sync/internal/domain/match"
)

type MatchRepository struct {
	mu      sync.RWMutex
	records map[string]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{records: make(map[string]match.Match)}
}

func (r *MatchRepository) Get(_ context.Context, id string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.records[id]
	return m, ok, nil
}

func (r *MatchRepository) List(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.records))
	for _, m := range r.records {
		out = append(out, m)
	}
	sortMatches(out)
	return out, nil
}

func (r *MatchRepository) ListByStatus(_ context.Context, status string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.records))
	for _, m := range r.records {
		if m.Status == status {
			out = append(out, m)
		}
	}
	sortMatches(out)
	return out, nil
}

// Upsert merges the incoming record over the stored one. LastSyncedAt never
// moves backwards, and a FinalResult that is already stored wins over any
// later write.
func (r *MatchRepository) Upsert(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[m.ID]
	if ok {
		if m.Sync.LastSyncedAt.Before(existing.Sync.LastSyncedAt) {
			m.Sync.LastSyncedAt = existing.Sync.LastSyncedAt
		}
		if existing.Final != nil {
			m.Final = existing.Final
		}
	}
	r.records[m.ID] = m
	return nil
}

func (r *MatchRepository) RecordSyncError(_ context.Context, id, message string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.records[id]
	if !ok {
		return nil
	}
	m.Sync.ErrorCount++
	m.Sync.LastError = message
	m.Sync.LastErrorAt = &at
	r.records[id] = m
	return nil
}

func sortMatches(items []match.Match) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].KickoffAt.Equal(items[j].KickoffAt) {
			return items[i].KickoffAt.Before(items[j].KickoffAt)
		}
		return items[i].ID < items[j].ID
	})
}
