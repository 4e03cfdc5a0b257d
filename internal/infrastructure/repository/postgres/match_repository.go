// Package postgres implements the match store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/matchpulse/match-sync/internal/domain/match"
	qb "github.com/matchpulse/match-sync/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Get(ctx context.Context, id string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("match_id", id)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match: %w", err)
	}

	m, err := row.toDomain()
	if err != nil {
		return match.Match{}, false, err
	}
	return m, true, nil
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	return r.list(ctx, nil)
}

func (r *MatchRepository) ListByStatus(ctx context.Context, status string) ([]match.Match, error) {
	return r.list(ctx, []qb.Condition{qb.Eq("status", status)})
}

func (r *MatchRepository) list(ctx context.Context, where []qb.Condition) ([]match.Match, error) {
	builder := qb.Select("*").From("matches").OrderBy("kickoff_at", "match_id")
	if len(where) > 0 {
		builder = builder.Where(where...)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Upsert writes the record under its match_id. The conflict clause keeps
// last_synced_at monotonic and never discards a stored final_result.
func (r *MatchRepository) Upsert(ctx context.Context, m match.Match) error {
	row, err := newMatchTableModel(m)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertInto("matches").
		Columns(matchColumns...).
		Values(row.insertValues()...).
		Suffix(upsertConflictClause()).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	return nil
}

func (r *MatchRepository) RecordSyncError(ctx context.Context, id, message string, at time.Time) error {
	const query = `UPDATE matches
		SET error_count = error_count + 1,
		    last_error = $1,
		    last_error_at = $2
		WHERE match_id = $3`

	if _, err := r.db.ExecContext(ctx, query, message, at.UTC(), id); err != nil {
		return fmt.Errorf("record sync error: %w", err)
	}
	return nil
}

func upsertConflictClause() string {
	assignments := make([]string, 0, len(matchColumns))
	for _, column := range matchColumns {
		switch column {
		case "match_id":
			continue
		case "final_result":
			assignments = append(assignments, "final_result = COALESCE(matches.final_result, EXCLUDED.final_result)")
		case "last_synced_at":
			assignments = append(assignments, "last_synced_at = GREATEST(matches.last_synced_at, EXCLUDED.last_synced_at)")
		default:
			assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
		}
	}
	return "ON CONFLICT (match_id) DO UPDATE SET " + strings.Join(assignments, ", ")
}
