package usecase

import (
	"strconv"
	"strings"
	"time"

	"github.com/matchpulse/match-sync/internal/domain/match"
)

// RawMatch is one undecoded provider row. Field names drift across provider
// versions, so every canonical field is resolved through an explicit list
// of accepted source paths evaluated in priority order; adding a new
// provider spelling is a table change, not a code change.
type RawMatch map[string]any

var (
	idPaths        = []string{"match_id", "matchId", "id", "fixture_id", "event_id"}
	statusPaths    = []string{"status", "state", "match_status", "lifecycle"}
	homeTeamPaths  = []string{"home_team", "homeTeam", "teams.home.name", "home.name", "localteam.name"}
	awayTeamPaths  = []string{"away_team", "awayTeam", "teams.away.name", "away.name", "visitorteam.name"}
	leaguePaths    = []string{"league", "league_name", "competition", "tournament.name"}
	homeLogoPaths  = []string{"home_logo", "teams.home.logo", "home.logo"}
	awayLogoPaths  = []string{"away_logo", "teams.away.logo", "away.logo"}
	flagPaths      = []string{"league_flag", "country_flag", "tournament.flag"}
	kickoffPaths   = []string{"kickoff_date", "kickoff_at", "kickoff", "starting_at", "start_time", "date"}
	oddsPaths      = []string{"consensus_odds", "odds", "avg_odds"}
	booksPaths     = []string{"all_bookmakers", "bookmakers", "books"}
	bookCountPaths = []string{"book_count", "bookmaker_count", "books_count"}
	v1ModelPaths   = []string{"v1_model", "model_v1", "prediction"}
	v2ModelPaths   = []string{"v2_model", "model_v2"}

	homeScorePaths = []string{"current_score.home", "score.home", "home_score", "goals.home"}
	awayScorePaths = []string{"current_score.away", "score.away", "away_score", "goals.away"}
	elapsedPaths   = []string{"elapsed_minutes", "elapsed", "minute", "time.minute"}
	periodPaths    = []string{"period", "time.period", "half"}
	liveStatsPaths = []string{"live_statistics", "statistics"}

	outcomePaths     = []string{"final_result.outcome", "outcome", "result"}
	outcomeTextPaths = []string{"final_result.outcome_text", "outcome_text", "result_text"}
	matchStatsPaths  = []string{"match_statistics", "statistics", "stats"}
	venuePaths       = []string{"venue", "venue.name", "stadium"}
	refereePaths     = []string{"referee", "referee.name", "official"}
	attendancePaths  = []string{"attendance", "crowd"}
)

var kickoffLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Transform maps one raw provider row into a canonical record. It returns
// nil when no usable external identifier can be extracted — a data-quality
// skip, not a fault. The function is pure given the clock argument.
func Transform(raw RawMatch, now time.Time) *match.Match {
	id := strings.TrimSpace(rawString(raw, idPaths...))
	if id == "" || strings.EqualFold(id, "undefined") || strings.EqualFold(id, "null") {
		return nil
	}

	status := match.NormalizeStatus(rawString(raw, statusPaths...))
	kickoff := rawTime(raw, kickoffPaths...)

	m := &match.Match{
		ID:         id,
		HomeTeam:   strings.TrimSpace(rawString(raw, homeTeamPaths...)),
		AwayTeam:   strings.TrimSpace(rawString(raw, awayTeamPaths...)),
		League:     strings.TrimSpace(rawString(raw, leaguePaths...)),
		HomeLogo:   strings.TrimSpace(rawString(raw, homeLogoPaths...)),
		AwayLogo:   strings.TrimSpace(rawString(raw, awayLogoPaths...)),
		LeagueFlag: strings.TrimSpace(rawString(raw, flagPaths...)),
		Status:     status,
		KickoffAt:  kickoff,
	}

	m.Odds = rawOdds(raw, oddsPaths...)
	m.Bookmakers = rawBookmakers(raw, booksPaths...)
	m.BookCount = rawInt(raw, bookCountPaths...)
	if m.BookCount == 0 {
		m.BookCount = len(m.Bookmakers)
	}
	m.V1Model = rawModel(raw, v1ModelPaths...)
	m.V2Model = rawModel(raw, v2ModelPaths...)

	// Live-only and finished-only sub-objects are strictly conditioned on
	// the normalized status.
	switch status {
	case match.StatusLive:
		m.Live = &match.LiveState{
			Score: match.Score{
				Home: nonNegative(rawInt(raw, homeScorePaths...)),
				Away: nonNegative(rawInt(raw, awayScorePaths...)),
			},
			ElapsedMinutes: nonNegative(rawInt(raw, elapsedPaths...)),
			Period:         strings.TrimSpace(rawString(raw, periodPaths...)),
			Statistics:     rawMap(raw, liveStatsPaths...),
		}
	case match.StatusFinished:
		m.Final = &match.FinalResult{
			Score: match.Score{
				Home: nonNegative(rawInt(raw, homeScorePaths...)),
				Away: nonNegative(rawInt(raw, awayScorePaths...)),
			},
			Outcome:     strings.TrimSpace(rawString(raw, outcomePaths...)),
			OutcomeText: strings.TrimSpace(rawString(raw, outcomeTextPaths...)),
		}
		m.Statistics = rawMap(raw, matchStatsPaths...)
		m.Venue = strings.TrimSpace(rawString(raw, venuePaths...))
		m.Referee = strings.TrimSpace(rawString(raw, refereePaths...))
		m.Attendance = nonNegative(rawInt(raw, attendancePaths...))
	}

	m.Sync = match.SyncState{
		LastSyncedAt: now,
		NextSyncAt:   match.NextSyncAt(status, now),
		Priority:     match.PriorityFor(status, kickoff, now),
	}

	return m
}

// pathValue resolves a dotted path against nested maps.
func pathValue(raw map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	current := any(raw)
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func rawString(raw RawMatch, paths ...string) string {
	for _, path := range paths {
		value, ok := pathValue(raw, path)
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

func rawFloat(raw RawMatch, paths ...string) float64 {
	for _, path := range paths {
		value, ok := pathValue(raw, path)
		if !ok {
			continue
		}
		if f, ok := toFloat(value); ok {
			return f
		}
	}
	return 0
}

func rawInt(raw RawMatch, paths ...string) int {
	return int(rawFloat(raw, paths...))
}

func rawMap(raw RawMatch, paths ...string) map[string]any {
	for _, path := range paths {
		value, ok := pathValue(raw, path)
		if !ok {
			continue
		}
		if m, ok := value.(map[string]any); ok && len(m) > 0 {
			return m
		}
	}
	return nil
}

func rawTime(raw RawMatch, paths ...string) time.Time {
	for _, path := range paths {
		value, ok := pathValue(raw, path)
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			text := strings.TrimSpace(v)
			for _, layout := range kickoffLayouts {
				if parsed, err := time.Parse(layout, text); err == nil {
					return parsed.UTC()
				}
			}
		case float64:
			if v > 0 {
				return time.Unix(int64(v), 0).UTC()
			}
		}
	}
	return time.Time{}
}

func rawOdds(raw RawMatch, paths ...string) *match.Odds {
	node := rawMap(raw, paths...)
	if node == nil {
		return nil
	}
	home := mapFloat(node, "home", "1")
	draw := mapFloat(node, "draw", "x", "X")
	away := mapFloat(node, "away", "2")
	if home <= 0 || draw <= 0 || away <= 0 {
		return nil
	}
	return &match.Odds{Home: home, Draw: draw, Away: away}
}

func rawBookmakers(raw RawMatch, paths ...string) map[string]match.Odds {
	node := rawMap(raw, paths...)
	if node == nil {
		return nil
	}
	out := make(map[string]match.Odds, len(node))
	for book, quoted := range node {
		q, ok := quoted.(map[string]any)
		if !ok {
			continue
		}
		home := mapFloat(q, "home", "1")
		draw := mapFloat(q, "draw", "x", "X")
		away := mapFloat(q, "away", "2")
		if home <= 0 || draw <= 0 || away <= 0 {
			continue
		}
		out[book] = match.Odds{Home: home, Draw: draw, Away: away}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func rawModel(raw RawMatch, paths ...string) *match.ModelPick {
	node := rawMap(raw, paths...)
	if node == nil {
		return nil
	}
	pick, _ := node["pick"].(string)
	confidence := mapFloat(node, "confidence")
	if strings.TrimSpace(pick) == "" && confidence == 0 {
		return nil
	}
	out := &match.ModelPick{Pick: strings.TrimSpace(pick), Confidence: confidence}
	if probs, ok := node["probs"].(map[string]any); ok {
		out.Probs = make(map[string]float64, len(probs))
		for key, value := range probs {
			if f, ok := toFloat(value); ok {
				out.Probs[key] = f
			}
		}
	}
	return out
}

func mapFloat(node map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if value, ok := node[key]; ok {
			if f, ok := toFloat(value); ok {
				return f
			}
		}
	}
	return 0
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
