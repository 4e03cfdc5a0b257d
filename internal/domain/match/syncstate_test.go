package match

import (
	"testing"
	"time"
)

func TestShouldSkip_LiveFreshnessWindow(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 7, 20, 15, 0, 0, time.UTC)
	existing := &Match{
		ID:     "m-100",
		Status: StatusLive,
		Sync:   SyncState{LastSyncedAt: t0},
	}

	if !ShouldSkip(existing, t0.Add(10*time.Second)) {
		t.Fatalf("expected skip at age 10s for live match")
	}
	if ShouldSkip(existing, t0.Add(31*time.Second)) {
		t.Fatalf("expected sync to proceed at age 31s for live match")
	}
}

func TestShouldSkip_UpcomingFreshnessWindow(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 7, 20, 15, 0, 0, time.UTC)
	existing := &Match{
		ID:     "m-101",
		Status: StatusUpcoming,
		Sync:   SyncState{LastSyncedAt: t0},
	}

	if !ShouldSkip(existing, t0.Add(9*time.Minute)) {
		t.Fatalf("expected skip at age 9m for upcoming match")
	}
	if ShouldSkip(existing, t0.Add(11*time.Minute)) {
		t.Fatalf("expected sync to proceed at age 11m for upcoming match")
	}
}

func TestShouldSkip_FinishedAlwaysSkips(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 7, 20, 15, 0, 0, time.UTC)
	existing := &Match{
		ID:     "m-102",
		Status: StatusFinished,
		Sync:   SyncState{LastSyncedAt: t0.Add(-48 * time.Hour)},
	}

	if !ShouldSkip(existing, t0) {
		t.Fatalf("finished match must always be skipped regardless of age")
	}
}

func TestShouldSkip_UnknownRecordNeverSkips(t *testing.T) {
	t.Parallel()

	if ShouldSkip(nil, time.Now()) {
		t.Fatalf("a match never seen before must not be skipped")
	}
}

func TestNextSyncAt_SchedulesPerStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)

	live := NextSyncAt(StatusLive, now)
	if live == nil || !live.Equal(now.Add(30*time.Second)) {
		t.Fatalf("unexpected live next sync: got=%v want=%v", live, now.Add(30*time.Second))
	}

	upcoming := NextSyncAt(StatusUpcoming, now)
	if upcoming == nil || !upcoming.Equal(now.Add(10*time.Minute)) {
		t.Fatalf("unexpected upcoming next sync: got=%v want=%v", upcoming, now.Add(10*time.Minute))
	}

	for _, status := range []string{StatusFinished, StatusCancelled, StatusPostponed} {
		if at := NextSyncAt(status, now); at != nil {
			t.Fatalf("terminal status %s must schedule no next sync, got=%v", status, at)
		}
	}
}

func TestPriorityFor_Tiers(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC)

	if got := PriorityFor(StatusLive, now, now); got != PriorityHigh {
		t.Fatalf("expected live priority high, got=%s", got)
	}
	if got := PriorityFor(StatusUpcoming, now.Add(6*time.Hour), now); got != PriorityMedium {
		t.Fatalf("expected imminent upcoming priority medium, got=%s", got)
	}
	if got := PriorityFor(StatusUpcoming, now.Add(72*time.Hour), now); got != PriorityLow {
		t.Fatalf("expected distant upcoming priority low, got=%s", got)
	}
	if got := PriorityFor(StatusFinished, now, now); got != PriorityLow {
		t.Fatalf("expected finished priority low, got=%s", got)
	}
}

func TestNormalizeStatus_FoldsProviderVocabulary(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"live":      StatusLive,
		"IN_PLAY":   StatusLive,
		"ht":        StatusLive,
		"FT":        StatusFinished,
		"completed": StatusFinished,
		"abandoned": StatusCancelled,
		"DELAYED":   StatusPostponed,
		"ns":        StatusUpcoming,
		"":          StatusUpcoming,
		"anything":  StatusUpcoming,
	}
	for input, want := range cases {
		if got := NormalizeStatus(input); got != want {
			t.Fatalf("normalize %q: got=%s want=%s", input, got, want)
		}
	}
}
