package markets

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestCompute_MissingOddsReturnsNil(t *testing.T) {
	t.Parallel()

	if got := Compute(Input{HomeOdds: 0, DrawOdds: 3.4, AwayOdds: 4.5}); got != nil {
		t.Fatalf("expected nil table for missing home price, got=%+v", got)
	}
	if got := Compute(Input{HomeOdds: 1.8, DrawOdds: -1, AwayOdds: 4.5}); got != nil {
		t.Fatalf("expected nil table for negative draw price, got=%+v", got)
	}
}

func TestCompute_DeVigsThreeWayPrices(t *testing.T) {
	t.Parallel()

	table := Compute(Input{HomeOdds: 1.8, DrawOdds: 3.4, AwayOdds: 4.5, Live: true})
	if table == nil {
		t.Fatal("expected a table")
	}

	sum := table.HomeWin + table.Draw + table.AwayWin
	if math.Abs(sum-1) > epsilon {
		t.Fatalf("de-vigged outcome probabilities must sum to 1, got=%f", sum)
	}
	if table.HomeWin <= table.Draw || table.Draw <= table.AwayWin {
		t.Fatalf("probability ordering must follow price ordering: home=%f draw=%f away=%f",
			table.HomeWin, table.Draw, table.AwayWin)
	}
}

func TestCompute_TotalsSumToOneAndDecreaseAcrossLines(t *testing.T) {
	t.Parallel()

	table := Compute(Input{HomeOdds: 1.8, DrawOdds: 3.4, AwayOdds: 4.5, Live: true})
	if table == nil {
		t.Fatal("expected a table")
	}
	if len(table.Totals) != len(TotalLines) {
		t.Fatalf("unexpected totals count: got=%d want=%d", len(table.Totals), len(TotalLines))
	}

	prevOver := 1.1
	for _, line := range table.Totals {
		if math.Abs(line.Over+line.Under-1) > epsilon {
			t.Fatalf("over+under must equal 1 at line %.1f: over=%f under=%f", line.Line, line.Over, line.Under)
		}
		if line.Over <= 0 || line.Over >= 1 {
			t.Fatalf("over must be a proper probability at line %.1f: got=%f", line.Line, line.Over)
		}
		if line.Over > prevOver {
			t.Fatalf("over must not increase with the line: line=%.1f over=%f prev=%f", line.Line, line.Over, prevOver)
		}
		prevOver = line.Over
	}
}

func TestCompute_SettledLineIsCertain(t *testing.T) {
	t.Parallel()

	table := Compute(Input{
		HomeOdds: 1.8, DrawOdds: 3.4, AwayOdds: 4.5,
		HomeGoals: 2, AwayGoals: 1,
		ElapsedMinutes: 75, Live: true,
	})
	if table == nil {
		t.Fatal("expected a table")
	}

	// 3 goals already scored settles every line below 3.
	for _, line := range table.Totals {
		if line.Line >= 3 {
			continue
		}
		if line.Over != 1 || line.Under != 0 {
			t.Fatalf("line %.1f already settled over: got over=%f under=%f", line.Line, line.Over, line.Under)
		}
	}
}

func TestCompute_LambdaIncludesScoredGoals(t *testing.T) {
	t.Parallel()

	table := Compute(Input{
		HomeOdds: 1.8, DrawOdds: 3.4, AwayOdds: 4.5,
		HomeGoals: 1, AwayGoals: 2,
		ElapsedMinutes: 60, Live: true,
	})
	if table == nil {
		t.Fatal("expected a table")
	}

	if table.HomeLambda < 1 {
		t.Fatalf("home expected goals must include the goal on the board, got=%f", table.HomeLambda)
	}
	if table.AwayLambda < 2 {
		t.Fatalf("away expected goals must include the goals on the board, got=%f", table.AwayLambda)
	}
	wantTotal := table.HomeLambda + table.AwayLambda
	if math.Abs(table.TotalLambda-wantTotal) > epsilon {
		t.Fatalf("total lambda mismatch: got=%f want=%f", table.TotalLambda, wantTotal)
	}
}

func TestCompute_NonLiveTreatsClockAsExpired(t *testing.T) {
	t.Parallel()

	table := Compute(Input{
		HomeOdds: 2.0, DrawOdds: 3.2, AwayOdds: 3.8,
		HomeGoals: 1, AwayGoals: 0,
		Live: false,
	})
	if table == nil {
		t.Fatal("expected a table")
	}

	if table.RemainingLambda != 0 {
		t.Fatalf("non-live input must accrue no further goals, got remaining=%f", table.RemainingLambda)
	}
	if math.Abs(table.TotalLambda-1) > epsilon {
		t.Fatalf("total lambda must equal scored goals when no time remains, got=%f", table.TotalLambda)
	}
}

func TestCompute_BTTSAndCleanSheets(t *testing.T) {
	t.Parallel()

	table := Compute(Input{HomeOdds: 1.8, DrawOdds: 3.4, AwayOdds: 4.5, Live: true})
	if table == nil {
		t.Fatal("expected a table")
	}

	wantYes := table.HomeScores * table.AwayScores
	if math.Abs(table.BTTSYes-wantYes) > epsilon {
		t.Fatalf("btts yes mismatch: got=%f want=%f", table.BTTSYes, wantYes)
	}
	if math.Abs(table.BTTSYes+table.BTTSNo-1) > epsilon {
		t.Fatalf("btts yes+no must equal 1: yes=%f no=%f", table.BTTSYes, table.BTTSNo)
	}

	conceded := Compute(Input{
		HomeOdds: 1.8, DrawOdds: 3.4, AwayOdds: 4.5,
		HomeGoals: 0, AwayGoals: 1,
		ElapsedMinutes: 30, Live: true,
	})
	if conceded.HomeCleanSheet != 0 {
		t.Fatalf("home clean sheet impossible after conceding, got=%f", conceded.HomeCleanSheet)
	}
	if conceded.HomeWinToNil != 0 {
		t.Fatalf("home win to nil impossible after conceding, got=%f", conceded.HomeWinToNil)
	}
}

func TestCompute_ParityFlipsWithScoredGoals(t *testing.T) {
	t.Parallel()

	evenBoard := Compute(Input{HomeOdds: 1.8, DrawOdds: 3.4, AwayOdds: 4.5, Live: true})
	oddBoard := Compute(Input{
		HomeOdds: 1.8, DrawOdds: 3.4, AwayOdds: 4.5,
		HomeGoals: 1, ElapsedMinutes: 0, Live: true,
	})

	if math.Abs(evenBoard.TotalEven+evenBoard.TotalOdd-1) > epsilon {
		t.Fatalf("parity pair must sum to 1: even=%f odd=%f", evenBoard.TotalEven, evenBoard.TotalOdd)
	}
	if math.Abs(evenBoard.TotalEven-oddBoard.TotalOdd) > epsilon {
		t.Fatalf("an extra goal must flip the parity mapping: evenBoard.even=%f oddBoard.odd=%f",
			evenBoard.TotalEven, oddBoard.TotalOdd)
	}
}

func TestCompute_HandicapsClampAndAnchorAtZero(t *testing.T) {
	t.Parallel()

	table := Compute(Input{HomeOdds: 1.1, DrawOdds: 12, AwayOdds: 20, Live: true})
	if table == nil {
		t.Fatal("expected a table")
	}

	for _, h := range table.Handicaps {
		if h.Line == 0 {
			if h.Home != table.HomeWin || h.Away != table.AwayWin {
				t.Fatalf("zero line must quote the raw win probabilities: got home=%f away=%f", h.Home, h.Away)
			}
			continue
		}
		if h.Home < probFloor || h.Home > probCeil {
			t.Fatalf("handicap home probability out of clamp range at line %.1f: got=%f", h.Line, h.Home)
		}
		if h.Away < probFloor || h.Away > probCeil {
			t.Fatalf("handicap away probability out of clamp range at line %.1f: got=%f", h.Line, h.Away)
		}
	}
}
