package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/matchpulse/match-sync/internal/domain/match"
	"github.com/matchpulse/match-sync/internal/platform/logging"
)

const (
	SyncTypeLive      = "live"
	SyncTypeUpcoming  = "upcoming"
	SyncTypeCompleted = "completed"
	SyncTypeAll       = "all"
)

// MatchProvider pulls raw match rows for one lifecycle status. The client
// owns its own retry policy; a returned error means retries are exhausted.
type MatchProvider interface {
	FetchMatches(ctx context.Context, status string, limit int) ([]RawMatch, error)
}

type SyncConfig struct {
	Enabled            bool
	FetchLimit         int
	WorkerCount        int
	ErrorSampleSize    int
	RecordErrorTimeout time.Duration
}

// StatusResult aggregates one status batch.
type StatusResult struct {
	Synced     int      `json:"synced"`
	Errors     int      `json:"errors"`
	Skipped    int      `json:"skipped"`
	DurationMs int64    `json:"durationMs"`
	Failures   []string `json:"failures,omitempty"`
	// FailureOverflow counts error messages dropped from Failures.
	FailureOverflow int `json:"failureOverflow,omitempty"`
}

// RunSummary is the outcome of one orchestrator invocation.
type RunSummary struct {
	Results    map[string]StatusResult `json:"results"`
	Synced     int                     `json:"synced"`
	Errors     int                     `json:"errors"`
	Skipped    int                     `json:"skipped"`
	DurationMs int64                   `json:"durationMs"`
}

// SyncService is the synchronization orchestrator: fetch, transform, gate,
// upsert, per lifecycle status, with per-match error isolation.
type SyncService struct {
	provider MatchProvider
	repo     match.Repository
	cfg      SyncConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewSyncService(provider MatchProvider, repo match.Repository, cfg SyncConfig, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 100
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 3
	}
	if cfg.ErrorSampleSize <= 0 {
		cfg.ErrorSampleSize = 5
	}
	if cfg.RecordErrorTimeout <= 0 {
		cfg.RecordErrorTimeout = 3 * time.Second
	}

	return &SyncService{
		provider: provider,
		repo:     repo,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one sync pass over the requested sync types. Status batches
// run concurrently on a worker pool: they hit disjoint upstream queries and
// converge only at the store's per-key upsert, so an outage on one status
// never blocks the others. With force set the freshness gate is bypassed
// entirely.
func (s *SyncService) Run(ctx context.Context, types []string, force bool) (RunSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Run")
	defer span.End()

	if !s.cfg.Enabled {
		return RunSummary{}, fmt.Errorf("%w: match sync is disabled (SYNC_ENABLED=false)", ErrDependencyUnavailable)
	}
	if s.provider == nil || s.repo == nil {
		return RunSummary{}, fmt.Errorf("%w: match provider is not fully configured", ErrDependencyUnavailable)
	}

	statuses, err := resolveSyncTypes(types)
	if err != nil {
		return RunSummary{}, err
	}

	started := s.now()
	type statusOutcome struct {
		status string
		result StatusResult
	}
	results := make(chan statusOutcome, len(statuses))

	workers := s.cfg.WorkerCount
	if workers > len(statuses) {
		workers = len(statuses)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return RunSummary{}, fmt.Errorf("create sync worker pool: %w", err)
	}
	defer pool.Release()

	pending := 0
	for _, status := range statuses {
		status := status
		if submitErr := pool.Submit(func() {
			results <- statusOutcome{status: status, result: s.syncStatus(ctx, status, force)}
		}); submitErr != nil {
			results <- statusOutcome{status: status, result: StatusResult{
				Errors:   1,
				Failures: []string{fmt.Sprintf("submit %s batch: %v", status, submitErr)},
			}}
		}
		pending++
	}

	summary := RunSummary{Results: make(map[string]StatusResult, len(statuses))}
	for i := 0; i < pending; i++ {
		outcome := <-results
		summary.Results[outcome.status] = outcome.result
		summary.Synced += outcome.result.Synced
		summary.Errors += outcome.result.Errors
		summary.Skipped += outcome.result.Skipped
	}
	summary.DurationMs = s.now().Sub(started).Milliseconds()

	s.logger.InfoContext(ctx, "sync run finished",
		"types", statuses,
		"force", force,
		"synced", summary.Synced,
		"errors", summary.Errors,
		"skipped", summary.Skipped,
		"duration_ms", summary.DurationMs,
	)
	return summary, nil
}

func (s *SyncService) syncStatus(ctx context.Context, status string, force bool) StatusResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.syncStatus")
	defer span.End()

	started := s.now()
	var result StatusResult
	var failures []string

	raws, err := s.provider.FetchMatches(ctx, status, s.cfg.FetchLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "fetch batch failed", "status", status, "error", err)
		result.Errors = 1
		result.Failures = []string{err.Error()}
		result.DurationMs = s.now().Sub(started).Milliseconds()
		return result
	}

	for _, raw := range raws {
		if ctx.Err() != nil {
			break
		}

		now := s.now()
		m := Transform(raw, now)
		if m == nil {
			result.Skipped++
			continue
		}

		existing, found, getErr := s.repo.Get(ctx, m.ID)
		if getErr != nil {
			result.Errors++
			failures = append(failures, fmt.Sprintf("load %s: %v", m.ID, getErr))
			continue
		}
		if !force && found && match.ShouldSkip(&existing, now) {
			result.Skipped++
			continue
		}

		// A successful upsert clears the record's error bookkeeping.
		m.Sync.ErrorCount = 0
		m.Sync.LastError = ""
		if upsertErr := s.repo.Upsert(ctx, *m); upsertErr != nil {
			result.Errors++
			failures = append(failures, fmt.Sprintf("upsert %s: %v", m.ID, upsertErr))
			s.recordSyncError(m.ID, upsertErr)
			continue
		}
		result.Synced++
	}

	if len(failures) > s.cfg.ErrorSampleSize {
		result.FailureOverflow = len(failures) - s.cfg.ErrorSampleSize
		failures = failures[:s.cfg.ErrorSampleSize]
	}
	result.Failures = append(result.Failures, failures...)
	result.DurationMs = s.now().Sub(started).Milliseconds()

	s.logger.InfoContext(ctx, "status batch finished",
		"status", status,
		"synced", result.Synced,
		"errors", result.Errors,
		"skipped", result.Skipped,
		"duration_ms", result.DurationMs,
	)
	return result
}

// recordSyncError bumps the stored error counter for a match. It is a
// diagnostic side channel: the write is fire-and-forget on a detached
// context and its own failure is only logged, never propagated.
func (s *SyncService) recordSyncError(id string, cause error) {
	message := cause.Error()
	at := s.now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RecordErrorTimeout)
		defer cancel()
		if err := s.repo.RecordSyncError(ctx, id, message, at); err != nil {
			s.logger.Debug("record sync error failed", "match_id", id, "error", err)
		}
	}()
}

func resolveSyncTypes(types []string) ([]string, error) {
	all := []string{SyncTypeLive, SyncTypeUpcoming, SyncTypeCompleted}
	if len(types) == 0 {
		return all, nil
	}

	requested := make(map[string]struct{}, len(types))
	for _, t := range types {
		switch t {
		case SyncTypeAll:
			return all, nil
		case SyncTypeLive, SyncTypeUpcoming, SyncTypeCompleted:
			requested[t] = struct{}{}
		default:
			return nil, fmt.Errorf("%w: unknown sync type %q", ErrInvalidInput, t)
		}
	}

	out := make([]string, 0, len(requested))
	for _, t := range all {
		if _, ok := requested[t]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
