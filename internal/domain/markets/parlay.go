package markets

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// SafeLegFloor is the minimum individual probability for a leg to be
	// eligible for parlay inclusion.
	SafeLegFloor = 0.55

	tierHighFloor   = 0.30
	tierMediumFloor = 0.20

	// 3-leg combinations are enumerated from the top legs only to bound
	// the combinatorial blow-up.
	tripleBaseSize = 10
)

const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// Outcome is one individual market outcome with its canonical code.
// Outcomes in the same family with different sides are mutually exclusive
// for parlay purposes.
type Outcome struct {
	Code        string  `json:"code"`
	Family      string  `json:"family"`
	Side        string  `json:"side"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// MatchMarkets pairs a match identifier with its computed table.
type MatchMarkets struct {
	MatchID string
	Table   *Table
}

// Candidate is a same-game multi-leg combination. Combined probability is
// the product of the leg probabilities, priced independently; fair odds are
// its reciprocal.
type Candidate struct {
	MatchID             string    `json:"matchId"`
	Legs                []Outcome `json:"legs"`
	Key                 string    `json:"key"`
	CombinedProbability float64   `json:"combinedProbability"`
	FairOdds            float64   `json:"fairOdds"`
	Tier                string    `json:"confidence"`
}

// SafeLegs enumerates every market outcome in the table whose probability
// clears the safe-leg floor, ordered by descending probability.
func SafeLegs(t *Table) []Outcome {
	if t == nil {
		return nil
	}

	legs := make([]Outcome, 0, 16)
	add := func(code, family, side, label string, p float64) {
		if p >= SafeLegFloor {
			legs = append(legs, Outcome{Code: code, Family: family, Side: side, Label: label, Probability: p})
		}
	}

	for _, line := range t.Totals {
		tag := lineTag(line.Line)
		add("OVER_"+tag, "totals", "over", fmt.Sprintf("Over %.1f goals", line.Line), line.Over)
		add("UNDER_"+tag, "totals", "under", fmt.Sprintf("Under %.1f goals", line.Line), line.Under)
	}
	for _, line := range t.HomeTotals {
		tag := lineTag(line.Line)
		add("HOME_OVER_"+tag, "home_total", "over", fmt.Sprintf("Home over %.1f", line.Line), line.Over)
		add("HOME_UNDER_"+tag, "home_total", "under", fmt.Sprintf("Home under %.1f", line.Line), line.Under)
	}
	for _, line := range t.AwayTotals {
		tag := lineTag(line.Line)
		add("AWAY_OVER_"+tag, "away_total", "over", fmt.Sprintf("Away over %.1f", line.Line), line.Over)
		add("AWAY_UNDER_"+tag, "away_total", "under", fmt.Sprintf("Away under %.1f", line.Line), line.Under)
	}

	add("BTTS_YES", "btts", "yes", "Both teams to score", t.BTTSYes)
	add("BTTS_NO", "btts", "no", "Not both teams to score", t.BTTSNo)

	add("DC_1X", "double_chance", "1x", "Home or draw", t.DoubleChance1X)
	add("DC_X2", "double_chance", "x2", "Draw or away", t.DoubleChanceX2)
	add("DC_12", "double_chance", "12", "Home or away", t.DoubleChance12)

	add("HOME_WIN_TO_NIL", "win_to_nil", "home", "Home wins to nil", t.HomeWinToNil)
	add("AWAY_WIN_TO_NIL", "win_to_nil", "away", "Away wins to nil", t.AwayWinToNil)

	add("HOME_CLEAN_SHEET", "clean_sheet", "home", "Home clean sheet", t.HomeCleanSheet)
	add("AWAY_CLEAN_SHEET", "clean_sheet", "away", "Away clean sheet", t.AwayCleanSheet)

	add("TOTAL_EVEN", "odd_even", "even", "Even total goals", t.TotalEven)
	add("TOTAL_ODD", "odd_even", "odd", "Odd total goals", t.TotalOdd)

	sort.SliceStable(legs, func(i, j int) bool {
		if legs[i].Probability != legs[j].Probability {
			return legs[i].Probability > legs[j].Probability
		}
		return legs[i].Code < legs[j].Code
	})
	return legs
}

// GenerateParlays enumerates viable 2- and 3-leg same-game combinations
// across all given matches, deduplicated and ranked by combined probability.
func GenerateParlays(matches []MatchMarkets) []Candidate {
	seen := make(map[string]struct{}, 64)
	out := make([]Candidate, 0, 64)

	for _, m := range matches {
		if m.MatchID == "" {
			continue
		}
		legs := SafeLegs(m.Table)
		if len(legs) < 2 {
			continue
		}

		for i := 0; i < len(legs); i++ {
			for j := i + 1; j < len(legs); j++ {
				if c, ok := buildCandidate(m.MatchID, []Outcome{legs[i], legs[j]}); ok {
					appendUnique(&out, seen, c)
				}
			}
		}

		base := legs
		if len(base) > tripleBaseSize {
			base = base[:tripleBaseSize]
		}
		for i := 0; i < len(base); i++ {
			for j := i + 1; j < len(base); j++ {
				for k := j + 1; k < len(base); k++ {
					if c, ok := buildCandidate(m.MatchID, []Outcome{base[i], base[j], base[k]}); ok {
						appendUnique(&out, seen, c)
					}
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CombinedProbability != out[j].CombinedProbability {
			return out[i].CombinedProbability > out[j].CombinedProbability
		}
		if out[i].MatchID != out[j].MatchID {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func buildCandidate(matchID string, legs []Outcome) (Candidate, bool) {
	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			if !compatible(legs[i], legs[j]) {
				return Candidate{}, false
			}
		}
	}

	combined := 1.0
	codes := make([]string, 0, len(legs))
	for _, leg := range legs {
		combined *= leg.Probability
		codes = append(codes, leg.Code)
	}
	sort.Strings(codes)

	tier := TierLow
	switch {
	case combined >= tierHighFloor:
		tier = TierHigh
	case combined >= tierMediumFloor:
		tier = TierMedium
	}
	if len(legs) == 3 && tier == TierHigh {
		tier = TierMedium
	}

	return Candidate{
		MatchID:             matchID,
		Legs:                legs,
		Key:                 strings.Join(codes, "+"),
		CombinedProbability: combined,
		FairOdds:            1 / combined,
		Tier:                tier,
	}, true
}

// compatible rejects legs from the same market family with conflicting
// sides, and legs resolving to an identical outcome code.
func compatible(a, b Outcome) bool {
	if a.Code == b.Code {
		return false
	}
	if a.Family == b.Family && a.Side != b.Side {
		return false
	}
	return true
}

func appendUnique(out *[]Candidate, seen map[string]struct{}, c Candidate) {
	key := c.MatchID + "|" + c.Key
	if _, ok := seen[key]; ok {
		return
	}
	seen[key] = struct{}{}
	*out = append(*out, c)
}

func lineTag(line float64) string {
	return strings.ReplaceAll(fmt.Sprintf("%.1f", line), ".", "_")
}
