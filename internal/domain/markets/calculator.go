package markets

import "math"

// The calculator derives secondary market probabilities from three sparse
// inputs: a three-way price, the current score, and the clock. Expected
// goals are a proxy driven by the de-vigged win probabilities, not a fitted
// scoreline model, and leg probabilities are priced independently of each
// other throughout.

const (
	probFloor = 0.01
	probCeil  = 0.99

	fullTimeMinutes = 90.0

	winGoalWeight  = 1.5
	drawGoalWeight = 0.5

	scoreWinWeight  = 0.7
	scoreDrawWeight = 0.5

	handicapSlope = 0.15
)

var (
	TotalLines     = []float64{0.5, 1.5, 2.5, 3.5, 4.5}
	TeamTotalLines = []float64{0.5, 1.5, 2.5}
	HandicapLines  = []float64{-1.5, -1.0, -0.5, 0, 0.5, 1.0, 1.5}
)

// Input is a snapshot of one match's priced state. When Live is false the
// clock is treated as expired: only the recorded score contributes to
// totals, since no time remains to accrue more goals.
type Input struct {
	HomeOdds float64
	DrawOdds float64
	AwayOdds float64

	HomeGoals int
	AwayGoals int

	ElapsedMinutes int
	Live           bool
}

// TotalLine carries the over/under pair for one goal line. The pair always
// sums to exactly 1.
type TotalLine struct {
	Line  float64 `json:"line"`
	Over  float64 `json:"over"`
	Under float64 `json:"under"`
}

// HandicapLine carries Asian-handicap cover probabilities for one line,
// quoted from the home perspective.
type HandicapLine struct {
	Line float64 `json:"line"`
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// Table is the full derived-market probability table for one match. It is
// recomputed from scratch per request and never persisted.
type Table struct {
	HomeWin float64 `json:"homeWin"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"awayWin"`

	HomeGoals int `json:"homeGoals"`
	AwayGoals int `json:"awayGoals"`

	// Expected totals: goals already scored plus remaining expected goals.
	HomeLambda      float64 `json:"homeExpectedGoals"`
	AwayLambda      float64 `json:"awayExpectedGoals"`
	TotalLambda     float64 `json:"totalExpectedGoals"`
	RemainingLambda float64 `json:"remainingExpectedGoals"`

	Totals     []TotalLine `json:"totals"`
	HomeTotals []TotalLine `json:"homeTotals"`
	AwayTotals []TotalLine `json:"awayTotals"`

	HomeScores float64 `json:"homeScores"`
	AwayScores float64 `json:"awayScores"`
	BTTSYes    float64 `json:"bttsYes"`
	BTTSNo     float64 `json:"bttsNo"`

	Handicaps []HandicapLine `json:"asianHandicaps"`

	DoubleChance1X float64 `json:"doubleChance1X"`
	DoubleChanceX2 float64 `json:"doubleChanceX2"`
	DoubleChance12 float64 `json:"doubleChance12"`

	HomeCleanSheet float64 `json:"homeCleanSheet"`
	AwayCleanSheet float64 `json:"awayCleanSheet"`
	HomeWinToNil   float64 `json:"homeWinToNil"`
	AwayWinToNil   float64 `json:"awayWinToNil"`

	TotalEven float64 `json:"totalEven"`
	TotalOdd  float64 `json:"totalOdd"`
}

// Compute builds the probability table for one match. It returns nil when
// any of the three-way prices is missing or non-positive: an incomplete
// market is an expected condition, not an error.
func Compute(in Input) *Table {
	if in.HomeOdds <= 0 || in.DrawOdds <= 0 || in.AwayOdds <= 0 {
		return nil
	}

	// Implied probabilities, normalized to strip the bookmaker margin.
	impliedHome := 1 / in.HomeOdds
	impliedDraw := 1 / in.DrawOdds
	impliedAway := 1 / in.AwayOdds
	total := impliedHome + impliedDraw + impliedAway
	pHome := impliedHome / total
	pDraw := impliedDraw / total
	pAway := impliedAway / total

	elapsed := float64(in.ElapsedMinutes)
	if !in.Live {
		elapsed = fullTimeMinutes
	}
	timeFactor := math.Max(0, fullTimeMinutes-elapsed) / fullTimeMinutes

	homeRemaining := (pHome*winGoalWeight + pDraw*drawGoalWeight) * timeFactor
	awayRemaining := (pAway*winGoalWeight + pDraw*drawGoalWeight) * timeFactor

	homeLambda := float64(in.HomeGoals) + homeRemaining
	awayLambda := float64(in.AwayGoals) + awayRemaining
	totalLambda := homeLambda + awayLambda
	currentTotal := in.HomeGoals + in.AwayGoals

	t := &Table{
		HomeWin:         pHome,
		Draw:            pDraw,
		AwayWin:         pAway,
		HomeGoals:       in.HomeGoals,
		AwayGoals:       in.AwayGoals,
		HomeLambda:      homeLambda,
		AwayLambda:      awayLambda,
		TotalLambda:     totalLambda,
		RemainingLambda: homeRemaining + awayRemaining,
	}

	t.Totals = overUnderLines(TotalLines, totalLambda, float64(currentTotal))
	t.HomeTotals = overUnderLines(TeamTotalLines, homeLambda, float64(in.HomeGoals))
	t.AwayTotals = overUnderLines(TeamTotalLines, awayLambda, float64(in.AwayGoals))

	// Both teams to score: product of marginal scoring probabilities,
	// priced independently.
	t.HomeScores = scoreWinWeight*pHome + scoreDrawWeight*pDraw
	t.AwayScores = scoreWinWeight*pAway + scoreDrawWeight*pDraw
	t.BTTSYes = t.HomeScores * t.AwayScores
	t.BTTSNo = 1 - t.BTTSYes

	t.Handicaps = make([]HandicapLine, 0, len(HandicapLines))
	for _, line := range HandicapLines {
		if line == 0 {
			t.Handicaps = append(t.Handicaps, HandicapLine{Line: 0, Home: pHome, Away: pAway})
			continue
		}
		t.Handicaps = append(t.Handicaps, HandicapLine{
			Line: line,
			Home: clampProb(pHome + line*handicapSlope),
			Away: clampProb(pAway - line*handicapSlope),
		})
	}

	t.DoubleChance1X = pHome + pDraw
	t.DoubleChanceX2 = pDraw + pAway
	t.DoubleChance12 = pHome + pAway

	t.HomeCleanSheet = 1 - t.AwayScores
	t.AwayCleanSheet = 1 - t.HomeScores
	if in.AwayGoals > 0 {
		t.HomeCleanSheet = 0
	}
	if in.HomeGoals > 0 {
		t.AwayCleanSheet = 0
	}
	t.HomeWinToNil = pHome * t.HomeCleanSheet
	t.AwayWinToNil = pAway * t.AwayCleanSheet

	t.TotalEven, t.TotalOdd = parityProbs(homeRemaining+awayRemaining, currentTotal)

	return t
}

func overUnderLines(lines []float64, lambda, scored float64) []TotalLine {
	out := make([]TotalLine, 0, len(lines))
	for _, line := range lines {
		if scored > line {
			// Already settled: over is certain, not an estimate.
			out = append(out, TotalLine{Line: line, Over: 1, Under: 0})
			continue
		}
		over := clampProb(1 - math.Exp(-lambda/(line+1)))
		out = append(out, TotalLine{Line: line, Over: over, Under: 1 - over})
	}
	return out
}

// parityProbs prices odd/even total goals. For Poisson-distributed future
// goals with rate r, P(even count) = (1 + e^(-2r)) / 2; the goals already
// on the board flip which parity that maps to.
func parityProbs(remaining float64, currentTotal int) (even, odd float64) {
	futureEven := (1 + math.Exp(-2*remaining)) / 2
	if currentTotal%2 == 0 {
		return futureEven, 1 - futureEven
	}
	return 1 - futureEven, futureEven
}

func clampProb(p float64) float64 {
	if p < probFloor {
		return probFloor
	}
	if p > probCeil {
		return probCeil
	}
	return p
}
