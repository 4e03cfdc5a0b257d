package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matchpulse/match-sync/internal/domain/match"
	"github.com/matchpulse/match-sync/internal/platform/cache"
	"github.com/matchpulse/match-sync/internal/platform/logging"
)

func seedMarketsRepo() *stubRepo {
	repo := newStubRepo()
	repo.records["m-live"] = match.Match{
		ID:     "m-live",
		Status: match.StatusLive,
		Odds:   &match.Odds{Home: 1.3, Draw: 5.5, Away: 9.0},
		Live:   &match.LiveState{Score: match.Score{Home: 1}, ElapsedMinutes: 30},
	}
	repo.records["m-upcoming"] = match.Match{
		ID:     "m-upcoming",
		Status: match.StatusUpcoming,
		Odds:   &match.Odds{Home: 1.4, Draw: 4.8, Away: 7.5},
	}
	repo.records["m-no-odds"] = match.Match{
		ID:     "m-no-odds",
		Status: match.StatusUpcoming,
	}
	return repo
}

func TestMarketsService_GetMatch(t *testing.T) {
	t.Parallel()

	svc := NewMarketsService(seedMarketsRepo(), nil, logging.NewNop())

	m, err := svc.GetMatch(context.Background(), "m-live")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if m.ID != "m-live" {
		t.Fatalf("unexpected match: got=%s", m.ID)
	}

	if _, err := svc.GetMatch(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}
	if _, err := svc.GetMatch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarketsService_ListMatches_StatusFilterIsNormalized(t *testing.T) {
	t.Parallel()

	svc := NewMarketsService(seedMarketsRepo(), nil, logging.NewNop())

	rows, err := svc.ListMatches(context.Background(), "in_play")
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "m-live" {
		t.Fatalf("expected the live match only, got=%v", rows)
	}

	all, err := svc.ListMatches(context.Background(), "")
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all matches, got=%d", len(all))
	}
}

func TestMarketsService_MarketsForMatch_MissingOddsYieldsNilTable(t *testing.T) {
	t.Parallel()

	svc := NewMarketsService(seedMarketsRepo(), nil, logging.NewNop())

	_, table, err := svc.MarketsForMatch(context.Background(), "m-no-odds")
	if err != nil {
		t.Fatalf("markets for match: %v", err)
	}
	if table != nil {
		t.Fatalf("expected nil table without odds, got=%+v", table)
	}

	_, table, err = svc.MarketsForMatch(context.Background(), "m-live")
	if err != nil {
		t.Fatalf("markets for match: %v", err)
	}
	if table == nil {
		t.Fatal("expected a table for a priced match")
	}
	if table.HomeGoals != 1 {
		t.Fatalf("live score must feed the table: got home goals=%d", table.HomeGoals)
	}
}

func TestMarketsService_MarketsForMatch_FinishedMatchPricesOffFinalScore(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	repo.records["m-finished"] = match.Match{
		ID:     "m-finished",
		Status: match.StatusFinished,
		Odds:   &match.Odds{Home: 1.8, Draw: 3.4, Away: 4.5},
		Final: &match.FinalResult{
			Score:   match.Score{Home: 3, Away: 1},
			Outcome: "home",
		},
	}
	svc := NewMarketsService(repo, nil, logging.NewNop())

	_, table, err := svc.MarketsForMatch(context.Background(), "m-finished")
	if err != nil {
		t.Fatalf("markets for match: %v", err)
	}
	if table == nil {
		t.Fatal("expected a table for a priced finished match")
	}
	if table.HomeGoals != 3 || table.AwayGoals != 1 {
		t.Fatalf("final score must feed the table: got=%d-%d want=3-1", table.HomeGoals, table.AwayGoals)
	}
	if table.RemainingLambda != 0 {
		t.Fatalf("no goals remain after full time: got=%v", table.RemainingLambda)
	}
	if table.TotalLambda != 4 {
		t.Fatalf("expected total goals must equal the final total: got=%v want=4", table.TotalLambda)
	}
	for _, line := range table.Totals {
		if line.Line < 4 && (line.Over != 1 || line.Under != 0) {
			t.Fatalf("line %v is settled over: got over=%v under=%v", line.Line, line.Over, line.Under)
		}
	}
}

func TestMarketsService_ParlaysForMatch_NoOddsYieldsEmptyList(t *testing.T) {
	t.Parallel()

	svc := NewMarketsService(seedMarketsRepo(), nil, logging.NewNop())

	parlays, err := svc.ParlaysForMatch(context.Background(), "m-no-odds")
	if err != nil {
		t.Fatalf("parlays for match: %v", err)
	}
	if parlays == nil || len(parlays) != 0 {
		t.Fatalf("expected empty non-nil list, got=%v", parlays)
	}
}

func TestMarketsService_ParlayBoard_UsesCacheUntilInvalidated(t *testing.T) {
	t.Parallel()

	repo := seedMarketsRepo()
	svc := NewMarketsService(repo, cache.NewStore(time.Minute), logging.NewNop())

	board, err := svc.ParlayBoard(context.Background())
	if err != nil {
		t.Fatalf("parlay board: %v", err)
	}
	if len(board) == 0 {
		t.Fatal("expected candidates from the seeded matches")
	}
	for _, c := range board {
		if c.MatchID == "m-no-odds" {
			t.Fatal("unpriced match must not reach the board")
		}
	}

	// A new match is invisible until the cached board is dropped.
	repo.mu.Lock()
	repo.records["m-extra"] = match.Match{
		ID:     "m-extra",
		Status: match.StatusLive,
		Odds:   &match.Odds{Home: 1.2, Draw: 6.5, Away: 12},
		Live:   &match.LiveState{},
	}
	repo.mu.Unlock()

	cached, err := svc.ParlayBoard(context.Background())
	if err != nil {
		t.Fatalf("parlay board: %v", err)
	}
	if len(cached) != len(board) {
		t.Fatalf("cached board must be served unchanged: got=%d want=%d", len(cached), len(board))
	}

	svc.InvalidateBoard(context.Background())
	rebuilt, err := svc.ParlayBoard(context.Background())
	if err != nil {
		t.Fatalf("parlay board: %v", err)
	}
	if len(rebuilt) <= len(board) {
		t.Fatalf("rebuilt board must include the new match: got=%d previous=%d", len(rebuilt), len(board))
	}
}
