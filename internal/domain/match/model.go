package match

import (
	"strings"
	"time"
)

const (
	StatusUpcoming  = "UPCOMING"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Score is a goals pair. Values are never negative.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Odds is a three-way decimal price. Every price is > 1.0 when present.
type Odds struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// ModelPick is an optional prediction snapshot attached by an upstream model.
type ModelPick struct {
	Pick       string             `json:"pick"`
	Confidence float64            `json:"confidence"`
	Probs      map[string]float64 `json:"probs,omitempty"`
}

// LiveState holds the fields that only exist while a match is in play.
type LiveState struct {
	Score          Score          `json:"currentScore"`
	ElapsedMinutes int            `json:"elapsedMinutes"`
	Period         string         `json:"period,omitempty"`
	Statistics     map[string]any `json:"liveStatistics,omitempty"`
}

// FinalResult holds the fields that only exist once a match has finished.
// Once written it is never altered.
type FinalResult struct {
	Score       Score  `json:"score"`
	Outcome     string `json:"outcome"`
	OutcomeText string `json:"outcomeText,omitempty"`
}

// Match is the canonical record for one external match identifier.
type Match struct {
	ID         string
	HomeTeam   string
	AwayTeam   string
	League     string
	HomeLogo   string
	AwayLogo   string
	LeagueFlag string

	Status    string
	KickoffAt time.Time

	Odds       *Odds
	Bookmakers map[string]Odds
	BookCount  int

	V1Model *ModelPick
	V2Model *ModelPick

	Live  *LiveState
	Final *FinalResult

	Statistics map[string]any
	Venue      string
	Referee    string
	Attendance int

	Sync SyncState
}

// NormalizeStatus folds the provider's status vocabulary into the canonical
// lifecycle. Anything unrecognized is treated as upcoming.
func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	switch status {
	case StatusLive, "IN_PLAY", "INPLAY", "HT", "1H", "2H", "ET", "PLAYING":
		return StatusLive
	case StatusFinished, "FT", "AET", "PEN", "ENDED", "COMPLETED", "FINAL":
		return StatusFinished
	case StatusCancelled, "ABANDONED", "SUSPENDED":
		return StatusCancelled
	case StatusPostponed, "DELAYED":
		return StatusPostponed
	default:
		return StatusUpcoming
	}
}

// IsTerminal reports whether a status schedules no further sync work.
func IsTerminal(status string) bool {
	switch status {
	case StatusFinished, StatusCancelled, StatusPostponed:
		return true
	default:
		return false
	}
}
