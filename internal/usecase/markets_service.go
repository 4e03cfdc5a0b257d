package usecase

import (
	"context"
	"fmt"
	"sort"

	concpool "github.com/sourcegraph/conc/pool"

	"github.com/matchpulse/match-sync/internal/domain/markets"
	"github.com/matchpulse/match-sync/internal/domain/match"
	"github.com/matchpulse/match-sync/internal/platform/cache"
	"github.com/matchpulse/match-sync/internal/platform/logging"
)

const parlayBoardCacheKey = "parlays:board"

// MarketsService serves the stored matches and the derived-market and
// parlay views computed from them.
type MarketsService struct {
	repo       match.Repository
	boardCache *cache.Store
	logger     *logging.Logger
}

func NewMarketsService(repo match.Repository, boardCache *cache.Store, logger *logging.Logger) *MarketsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MarketsService{
		repo:       repo,
		boardCache: boardCache,
		logger:     logger,
	}
}

func (s *MarketsService) ListMatches(ctx context.Context, status string) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketsService.ListMatches")
	defer span.End()

	if status == "" {
		return s.repo.List(ctx)
	}
	return s.repo.ListByStatus(ctx, match.NormalizeStatus(status))
}

func (s *MarketsService) GetMatch(ctx context.Context, id string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketsService.GetMatch")
	defer span.End()

	if id == "" {
		return match.Match{}, fmt.Errorf("%w: match id must not be empty", ErrInvalidInput)
	}
	m, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return match.Match{}, fmt.Errorf("load match %s: %w", id, err)
	}
	if !found {
		return match.Match{}, fmt.Errorf("%w: match %s", ErrNotFound, id)
	}
	return m, nil
}

// MarketsForMatch computes the full derived-market table for one match. A
// nil table means the stored record has no usable three-way odds.
func (s *MarketsService) MarketsForMatch(ctx context.Context, id string) (match.Match, *markets.Table, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketsService.MarketsForMatch")
	defer span.End()

	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return match.Match{}, nil, err
	}
	return m, markets.Compute(marketsInput(m)), nil
}

func (s *MarketsService) ParlaysForMatch(ctx context.Context, id string) ([]markets.Candidate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketsService.ParlaysForMatch")
	defer span.End()

	m, table, err := s.MarketsForMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return []markets.Candidate{}, nil
	}
	return markets.GenerateParlays([]markets.MatchMarkets{{MatchID: m.ID, Table: table}}), nil
}

// ParlayBoard builds parlay candidates across every live and upcoming
// match. The per-match tables are computed on a bounded goroutine pool
// and the assembled board is cached briefly.
func (s *MarketsService) ParlayBoard(ctx context.Context) ([]markets.Candidate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketsService.ParlayBoard")
	defer span.End()

	if s.boardCache == nil {
		return s.buildParlayBoard(ctx)
	}

	value, err := s.boardCache.GetOrLoad(ctx, parlayBoardCacheKey, func(ctx context.Context) (any, error) {
		return s.buildParlayBoard(ctx)
	})
	if err != nil {
		return nil, err
	}
	board, ok := value.([]markets.Candidate)
	if !ok {
		return nil, fmt.Errorf("unexpected cached board type %T", value)
	}
	return board, nil
}

func (s *MarketsService) buildParlayBoard(ctx context.Context) ([]markets.Candidate, error) {
	statuses := []string{match.StatusLive, match.StatusUpcoming}
	rows := make([]match.Match, 0, 64)
	for _, status := range statuses {
		batch, err := s.repo.ListByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("list %s matches: %w", status, err)
		}
		rows = append(rows, batch...)
	}

	p := concpool.NewWithResults[*markets.MatchMarkets]().WithMaxGoroutines(8)
	for _, row := range rows {
		row := row
		p.Go(func() *markets.MatchMarkets {
			table := markets.Compute(marketsInput(row))
			if table == nil {
				return nil
			}
			return &markets.MatchMarkets{MatchID: row.ID, Table: table}
		})
	}

	computed := make([]markets.MatchMarkets, 0, len(rows))
	for _, item := range p.Wait() {
		if item != nil {
			computed = append(computed, *item)
		}
	}
	sort.Slice(computed, func(i, j int) bool { return computed[i].MatchID < computed[j].MatchID })

	s.logger.DebugContext(ctx, "parlay board rebuilt", "matches", len(computed))
	return markets.GenerateParlays(computed), nil
}

// InvalidateBoard drops the cached parlay board, typically after a sync
// pass changed the underlying records.
func (s *MarketsService) InvalidateBoard(ctx context.Context) {
	if s.boardCache != nil {
		s.boardCache.Delete(ctx, parlayBoardCacheKey)
	}
}

func marketsInput(m match.Match) markets.Input {
	in := markets.Input{}
	if m.Odds != nil {
		in.HomeOdds = m.Odds.Home
		in.DrawOdds = m.Odds.Draw
		in.AwayOdds = m.Odds.Away
	}
	if m.Status == match.StatusLive && m.Live != nil {
		in.Live = true
		in.HomeGoals = m.Live.Score.Home
		in.AwayGoals = m.Live.Score.Away
		in.ElapsedMinutes = m.Live.ElapsedMinutes
	}
	// A finished match prices off its final score: settled totals lines are
	// certainties, not estimates.
	if m.Status == match.StatusFinished && m.Final != nil {
		in.HomeGoals = m.Final.Score.Home
		in.AwayGoals = m.Final.Score.Away
	}
	return in
}
