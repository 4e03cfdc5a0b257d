package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/matchpulse/match-sync/internal/domain/match"
	"github.com/matchpulse/match-sync/internal/platform/logging"
)

type stubProvider struct {
	mu      sync.Mutex
	rows    map[string][]RawMatch
	errs    map[string]error
	fetched []string
}

func (p *stubProvider) FetchMatches(_ context.Context, status string, _ int) ([]RawMatch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetched = append(p.fetched, status)
	if err := p.errs[status]; err != nil {
		return nil, err
	}
	return p.rows[status], nil
}

type stubRepo struct {
	mu        sync.Mutex
	records   map[string]match.Match
	getErr    error
	upsertErr map[string]error
	errorLog  []string
}

func newStubRepo() *stubRepo {
	return &stubRepo{records: map[string]match.Match{}, upsertErr: map[string]error{}}
}

func (r *stubRepo) Get(_ context.Context, id string) (match.Match, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return match.Match{}, false, r.getErr
	}
	m, ok := r.records[id]
	return m, ok, nil
}

func (r *stubRepo) List(_ context.Context) ([]match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]match.Match, 0, len(r.records))
	for _, m := range r.records {
		out = append(out, m)
	}
	return out, nil
}

func (r *stubRepo) ListByStatus(_ context.Context, status string) ([]match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]match.Match, 0, len(r.records))
	for _, m := range r.records {
		if m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubRepo) Upsert(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.upsertErr[m.ID]; err != nil {
		return err
	}
	r.records[m.ID] = m
	return nil
}

func (r *stubRepo) RecordSyncError(_ context.Context, id, message string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorLog = append(r.errorLog, id+": "+message)
	return nil
}

func newTestSyncService(provider MatchProvider, repo match.Repository, now time.Time) *SyncService {
	svc := NewSyncService(provider, repo, SyncConfig{Enabled: true}, logging.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestSyncService_Run_SyncsAllStatusesByDefault(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)
	provider := &stubProvider{rows: map[string][]RawMatch{
		"live":      {{"match_id": "m-1", "status": "live"}},
		"upcoming":  {{"match_id": "m-2", "status": "NS"}},
		"completed": {{"match_id": "m-3", "status": "FT"}},
	}}
	repo := newStubRepo()

	summary, err := newTestSyncService(provider, repo, now).Run(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}

	if summary.Synced != 3 || summary.Errors != 0 || summary.Skipped != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Results) != 3 {
		t.Fatalf("expected one result per status, got=%d", len(summary.Results))
	}
	if len(repo.records) != 3 {
		t.Fatalf("expected 3 stored matches, got=%d", len(repo.records))
	}
}

func TestSyncService_Run_UpstreamStatusMapping(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)
	provider := &stubProvider{rows: map[string][]RawMatch{}}
	repo := newStubRepo()

	if _, err := newTestSyncService(provider, repo, now).Run(context.Background(), []string{"completed"}, false); err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if len(provider.fetched) != 1 || provider.fetched[0] != "completed" {
		t.Fatalf("expected a single completed fetch, got=%v", provider.fetched)
	}
}

func TestSyncService_Run_UnusableRowCountsAsSkipped(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)
	provider := &stubProvider{rows: map[string][]RawMatch{
		"live": {
			{"id": "undefined", "status": "live"},
			{"match_id": "m-1", "status": "live"},
		},
	}}
	repo := newStubRepo()

	summary, err := newTestSyncService(provider, repo, now).Run(context.Background(), []string{"live"}, false)
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if summary.Synced != 1 || summary.Errors != 0 || summary.Skipped != 1 {
		t.Fatalf("unusable row must count as skipped, not errored: %+v", summary)
	}
}

func TestSyncService_Run_FreshRecordIsSkipped(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)
	provider := &stubProvider{rows: map[string][]RawMatch{
		"live": {{"match_id": "m-1", "status": "live"}},
	}}
	repo := newStubRepo()
	repo.records["m-1"] = match.Match{
		ID:     "m-1",
		Status: match.StatusLive,
		Sync:   match.SyncState{LastSyncedAt: t0},
	}

	summary, err := newTestSyncService(provider, repo, t0.Add(10*time.Second)).Run(context.Background(), []string{"live"}, false)
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if summary.Skipped != 1 || summary.Synced != 0 {
		t.Fatalf("record inside freshness window must be skipped: %+v", summary)
	}

	summary, err = newTestSyncService(provider, repo, t0.Add(31*time.Second)).Run(context.Background(), []string{"live"}, false)
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if summary.Synced != 1 || summary.Skipped != 0 {
		t.Fatalf("record past freshness window must be synced: %+v", summary)
	}
}

func TestSyncService_Run_ForceBypassesFreshnessGate(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)
	provider := &stubProvider{rows: map[string][]RawMatch{
		"live": {{"match_id": "m-1", "status": "live"}},
	}}
	repo := newStubRepo()
	repo.records["m-1"] = match.Match{
		ID:     "m-1",
		Status: match.StatusLive,
		Sync:   match.SyncState{LastSyncedAt: t0},
	}

	summary, err := newTestSyncService(provider, repo, t0.Add(time.Second)).Run(context.Background(), []string{"live"}, true)
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if summary.Synced != 1 || summary.Skipped != 0 {
		t.Fatalf("force must bypass the freshness gate: %+v", summary)
	}
}

func TestSyncService_Run_PerMatchErrorIsolation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)
	provider := &stubProvider{rows: map[string][]RawMatch{
		"live": {
			{"match_id": "m-bad", "status": "live"},
			{"match_id": "m-good", "status": "live"},
		},
	}}
	repo := newStubRepo()
	repo.upsertErr["m-bad"] = errors.New("constraint violation")

	summary, err := newTestSyncService(provider, repo, now).Run(context.Background(), []string{"live"}, false)
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if summary.Synced != 1 || summary.Errors != 1 {
		t.Fatalf("one failure must not abort the batch: %+v", summary)
	}
	if _, ok := repo.records["m-good"]; !ok {
		t.Fatal("healthy match must still be stored")
	}
	result := summary.Results["live"]
	if len(result.Failures) != 1 {
		t.Fatalf("expected one sampled failure, got=%v", result.Failures)
	}
}

func TestSyncService_Run_ProviderFailureIsOneBatchError(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)
	provider := &stubProvider{
		rows: map[string][]RawMatch{
			"upcoming": {{"match_id": "m-1", "status": "NS"}},
		},
		errs: map[string]error{"live": errors.New("feed unreachable")},
	}
	repo := newStubRepo()

	summary, err := newTestSyncService(provider, repo, now).Run(context.Background(), []string{"live", "upcoming"}, false)
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if summary.Errors != 1 || summary.Synced != 1 {
		t.Fatalf("batch failure must count once and not block other statuses: %+v", summary)
	}
}

func TestSyncService_Run_FailureSampleIsBounded(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)
	rows := make([]RawMatch, 0, 8)
	repo := newStubRepo()
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("m-%d", i)
		rows = append(rows, RawMatch{"match_id": id, "status": "live"})
		repo.upsertErr[id] = errors.New("write refused")
	}
	provider := &stubProvider{rows: map[string][]RawMatch{"live": rows}}

	svc := NewSyncService(provider, repo, SyncConfig{Enabled: true, ErrorSampleSize: 5}, logging.NewNop())
	svc.now = func() time.Time { return now }

	summary, err := svc.Run(context.Background(), []string{"live"}, false)
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}

	result := summary.Results["live"]
	if result.Errors != 8 {
		t.Fatalf("expected 8 errors, got=%d", result.Errors)
	}
	if len(result.Failures) != 5 {
		t.Fatalf("failure sample must be capped at 5, got=%d", len(result.Failures))
	}
	if result.FailureOverflow != 3 {
		t.Fatalf("unexpected failure overflow: got=%d want=3", result.FailureOverflow)
	}
}

func TestSyncService_Run_DisabledReturnsDependencyUnavailable(t *testing.T) {
	t.Parallel()

	svc := NewSyncService(&stubProvider{}, newStubRepo(), SyncConfig{Enabled: false}, logging.NewNop())
	if _, err := svc.Run(context.Background(), nil, false); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestSyncService_Run_UnknownTypeIsInvalidInput(t *testing.T) {
	t.Parallel()

	svc := newTestSyncService(&stubProvider{}, newStubRepo(), time.Now())
	if _, err := svc.Run(context.Background(), []string{"yesterday"}, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestResolveSyncTypes(t *testing.T) {
	t.Parallel()

	got, err := resolveSyncTypes(nil)
	if err != nil || len(got) != 3 {
		t.Fatalf("nil types must resolve to all statuses: got=%v err=%v", got, err)
	}

	got, err = resolveSyncTypes([]string{"upcoming", "all"})
	if err != nil || len(got) != 3 {
		t.Fatalf("all must win over specific types: got=%v err=%v", got, err)
	}

	got, err = resolveSyncTypes([]string{"completed", "live", "live"})
	if err != nil {
		t.Fatalf("resolve types: %v", err)
	}
	if len(got) != 2 || got[0] != SyncTypeLive || got[1] != SyncTypeCompleted {
		t.Fatalf("types must be deduplicated in canonical order: got=%v", got)
	}
}
