package match

import "time"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Freshness windows per lifecycle status. A record younger than its window
// is skipped by non-forced syncs.
const (
	LiveFreshness     = 30 * time.Second
	UpcomingFreshness = 10 * time.Minute
	ImminentKickoff   = 24 * time.Hour
)

// SyncState is the per-record scheduling bookkeeping. It travels with the
// record so freshness decisions are pure functions of stored data and a
// clock, not of process-global state.
type SyncState struct {
	LastSyncedAt time.Time
	NextSyncAt   *time.Time
	Priority     Priority
	ErrorCount   int
	LastError    string
	LastErrorAt  *time.Time
}

// PriorityFor returns the coarse scheduling tier: live matches are high,
// upcoming matches inside the kickoff window are medium, the rest low.
func PriorityFor(status string, kickoffAt, now time.Time) Priority {
	switch status {
	case StatusLive:
		return PriorityHigh
	case StatusUpcoming:
		if !kickoffAt.IsZero() && kickoffAt.Sub(now) <= ImminentKickoff {
			return PriorityMedium
		}
		return PriorityLow
	default:
		return PriorityLow
	}
}

// NextSyncAt schedules the follow-up sync. Terminal statuses return nil:
// no further sync work is ever scheduled for them.
func NextSyncAt(status string, now time.Time) *time.Time {
	switch status {
	case StatusLive:
		at := now.Add(LiveFreshness)
		return &at
	case StatusUpcoming:
		at := now.Add(UpcomingFreshness)
		return &at
	default:
		return nil
	}
}

// ShouldSkip is the freshness gate. It is a work-avoidance check evaluated
// before the upsert, not a correctness guarantee: concurrent syncs of the
// same match are redundant but safe.
func ShouldSkip(existing *Match, now time.Time) bool {
	if existing == nil {
		return false
	}
	if existing.Status == StatusFinished {
		return true
	}

	age := now.Sub(existing.Sync.LastSyncedAt)
	switch existing.Status {
	case StatusLive:
		return age < LiveFreshness
	case StatusUpcoming:
		return age < UpcomingFreshness
	default:
		return false
	}
}
