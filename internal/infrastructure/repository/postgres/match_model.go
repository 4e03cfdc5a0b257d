package postgres

import (
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/matchpulse/match-sync/internal/domain/match"
)

// matchTableModel mirrors the matches table. Nested document fields are
// stored as jsonb so provider payload drift never forces a migration.
type matchTableModel struct {
	MatchID    string `db:"match_id"`
	HomeTeam   string `db:"home_team"`
	AwayTeam   string `db:"away_team"`
	League     string `db:"league"`
	HomeLogo   string `db:"home_logo"`
	AwayLogo   string `db:"away_logo"`
	LeagueFlag string `db:"league_flag"`

	Status    string    `db:"status"`
	KickoffAt time.Time `db:"kickoff_at"`

	Odds       []byte `db:"odds"`
	Bookmakers []byte `db:"bookmakers"`
	BookCount  int    `db:"book_count"`

	V1Model []byte `db:"v1_model"`
	V2Model []byte `db:"v2_model"`

	LiveState   []byte `db:"live_state"`
	FinalResult []byte `db:"final_result"`

	Statistics []byte `db:"statistics"`
	Venue      string `db:"venue"`
	Referee    string `db:"referee"`
	Attendance int    `db:"attendance"`

	LastSyncedAt time.Time      `db:"last_synced_at"`
	NextSyncAt   sql.NullTime   `db:"next_sync_at"`
	Priority     string         `db:"priority"`
	ErrorCount   int            `db:"error_count"`
	LastError    sql.NullString `db:"last_error"`
	LastErrorAt  sql.NullTime   `db:"last_error_at"`
}

var matchColumns = []string{
	"match_id",
	"home_team",
	"away_team",
	"league",
	"home_logo",
	"away_logo",
	"league_flag",
	"status",
	"kickoff_at",
	"odds",
	"bookmakers",
	"book_count",
	"v1_model",
	"v2_model",
	"live_state",
	"final_result",
	"statistics",
	"venue",
	"referee",
	"attendance",
	"last_synced_at",
	"next_sync_at",
	"priority",
	"error_count",
	"last_error",
	"last_error_at",
}

func newMatchTableModel(m match.Match) (matchTableModel, error) {
	row := matchTableModel{
		MatchID:      m.ID,
		HomeTeam:     m.HomeTeam,
		AwayTeam:     m.AwayTeam,
		League:       m.League,
		HomeLogo:     m.HomeLogo,
		AwayLogo:     m.AwayLogo,
		LeagueFlag:   m.LeagueFlag,
		Status:       m.Status,
		KickoffAt:    m.KickoffAt.UTC(),
		BookCount:    m.BookCount,
		Venue:        m.Venue,
		Referee:      m.Referee,
		Attendance:   m.Attendance,
		LastSyncedAt: m.Sync.LastSyncedAt.UTC(),
		Priority:     string(m.Sync.Priority),
		ErrorCount:   m.Sync.ErrorCount,
	}

	if m.Sync.NextSyncAt != nil {
		row.NextSyncAt = sql.NullTime{Time: m.Sync.NextSyncAt.UTC(), Valid: true}
	}
	if m.Sync.LastError != "" {
		row.LastError = sql.NullString{String: m.Sync.LastError, Valid: true}
	}
	if m.Sync.LastErrorAt != nil {
		row.LastErrorAt = sql.NullTime{Time: m.Sync.LastErrorAt.UTC(), Valid: true}
	}

	for _, field := range []struct {
		name  string
		value any
		dst   *[]byte
	}{
		{"odds", m.Odds, &row.Odds},
		{"bookmakers", m.Bookmakers, &row.Bookmakers},
		{"v1_model", m.V1Model, &row.V1Model},
		{"v2_model", m.V2Model, &row.V2Model},
		{"live_state", m.Live, &row.LiveState},
		{"final_result", m.Final, &row.FinalResult},
		{"statistics", m.Statistics, &row.Statistics},
	} {
		encoded, err := marshalDocument(field.value)
		if err != nil {
			return matchTableModel{}, fmt.Errorf("encode %s: %w", field.name, err)
		}
		*field.dst = encoded
	}

	return row, nil
}

func (row matchTableModel) toDomain() (match.Match, error) {
	m := match.Match{
		ID:         row.MatchID,
		HomeTeam:   row.HomeTeam,
		AwayTeam:   row.AwayTeam,
		League:     row.League,
		HomeLogo:   row.HomeLogo,
		AwayLogo:   row.AwayLogo,
		LeagueFlag: row.LeagueFlag,
		Status:     row.Status,
		KickoffAt:  row.KickoffAt,
		BookCount:  row.BookCount,
		Venue:      row.Venue,
		Referee:    row.Referee,
		Attendance: row.Attendance,
		Sync: match.SyncState{
			LastSyncedAt: row.LastSyncedAt,
			Priority:     match.Priority(row.Priority),
			ErrorCount:   row.ErrorCount,
			LastError:    row.LastError.String,
		},
	}

	if row.NextSyncAt.Valid {
		at := row.NextSyncAt.Time
		m.Sync.NextSyncAt = &at
	}
	if row.LastErrorAt.Valid {
		at := row.LastErrorAt.Time
		m.Sync.LastErrorAt = &at
	}

	if err := unmarshalDocument(row.Odds, &m.Odds); err != nil {
		return match.Match{}, fmt.Errorf("decode odds: %w", err)
	}
	if err := unmarshalDocument(row.Bookmakers, &m.Bookmakers); err != nil {
		return match.Match{}, fmt.Errorf("decode bookmakers: %w", err)
	}
	if err := unmarshalDocument(row.V1Model, &m.V1Model); err != nil {
		return match.Match{}, fmt.Errorf("decode v1_model: %w", err)
	}
	if err := unmarshalDocument(row.V2Model, &m.V2Model); err != nil {
		return match.Match{}, fmt.Errorf("decode v2_model: %w", err)
	}
	if err := unmarshalDocument(row.LiveState, &m.Live); err != nil {
		return match.Match{}, fmt.Errorf("decode live_state: %w", err)
	}
	if err := unmarshalDocument(row.FinalResult, &m.Final); err != nil {
		return match.Match{}, fmt.Errorf("decode final_result: %w", err)
	}
	if err := unmarshalDocument(row.Statistics, &m.Statistics); err != nil {
		return match.Match{}, fmt.Errorf("decode statistics: %w", err)
	}

	return m, nil
}

func (row matchTableModel) insertValues() []any {
	return []any{
		row.MatchID,
		row.HomeTeam,
		row.AwayTeam,
		row.League,
		row.HomeLogo,
		row.AwayLogo,
		row.LeagueFlag,
		row.Status,
		row.KickoffAt,
		row.Odds,
		row.Bookmakers,
		row.BookCount,
		row.V1Model,
		row.V2Model,
		row.LiveState,
		row.FinalResult,
		row.Statistics,
		row.Venue,
		row.Referee,
		row.Attendance,
		row.LastSyncedAt,
		row.NextSyncAt,
		row.Priority,
		row.ErrorCount,
		row.LastError,
		row.LastErrorAt,
	}
}

func marshalDocument(value any) ([]byte, error) {
	if isNilDocument(value) {
		return nil, nil
	}
	return sonic.Marshal(value)
}

func unmarshalDocument(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}
	return sonic.Unmarshal(raw, target)
}

func isNilDocument(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case *match.Odds:
		return typed == nil
	case *match.ModelPick:
		return typed == nil
	case *match.LiveState:
		return typed == nil
	case *match.FinalResult:
		return typed == nil
	case map[string]match.Odds:
		return typed == nil
	case map[string]any:
		return typed == nil
	default:
		return false
	}
}
