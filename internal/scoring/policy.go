package scoring

import (
	"fmt"
	"math"
)

// noMessagesDays is the days-since-last-message sentinel for users with no
// stored messages; large enough to always land in the maximum-penalty branch.
const noMessagesDays = 999

// flagWeights are the additive score contributions applied when a flag is true.
var flagWeights = map[string]int{
	FlagSentMessagesAfterJoining:   50,
	FlagMessagedWithin30Days:       100,
	FlagAbove100Messages:           150,
	FlagBelow10Messages:            -50,
	FlagNeverMessaged:              -200,
	FlagNoRoleAssigned:             -100,
	FlagLowInteractionHighActivity: -150,
}

// Inputs carries everything a scoring policy needs; policies are pure
// functions of Inputs so they stay reproducible in tests.
type Inputs struct {
	MessagesPastMonth    int
	DaysSinceLastMessage int
	Flags                Flags
	Warnings             int
}

// Policy turns score inputs into a final integer. Exactly one policy runs
// per calculator; formulas are never merged.
type Policy interface {
	Name() string
	Score(in Inputs) int
}

// PolicyFromName resolves a configured policy name. Empty defaults to the
// canonical policy.
func PolicyFromName(name string) (Policy, error) {
	switch name {
	case "", "canonical":
		return CanonicalPolicy{}, nil
	case "legacy":
		return LegacyPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown scoring policy %q", name)
	}
}

// CanonicalPolicy: each message in the window contributes an increasing
// marginal reward, flags add fixed weights, and recency adjusts around a
// 7/30-day boundary. The running total is a real number floored once at the
// end, then clamped to zero.
type CanonicalPolicy struct{}

func (CanonicalPolicy) Name() string { return "canonical" }

func (CanonicalPolicy) Score(in Inputs) int {
	score := 0.0
	for i := 0; i < in.MessagesPastMonth; i++ {
		score += 5 + 0.2*float64(i)
	}

	for flag, weight := range flagWeights {
		if in.Flags[flag] {
			score += float64(weight)
		}
	}

	switch d := in.DaysSinceLastMessage; {
	case d <= 7:
		score += float64(10 * (7 - d))
	case d > 30:
		score -= float64(5 * (d - 30))
	}

	final := int(math.Floor(score))
	if final < 0 {
		return 0
	}
	return final
}

// LegacyPolicy is the superseded fixed-tier formula: start at 100, deduct
// tiered inactivity penalties, add tiered volume bonuses, deduct per-warning.
// It ignores flags entirely. Kept as an explicitly named alternative;
// selected via scoring.policy: legacy.
type LegacyPolicy struct{}

func (LegacyPolicy) Name() string { return "legacy" }

func (LegacyPolicy) Score(in Inputs) int {
	score := 100

	switch d := in.DaysSinceLastMessage; {
	case d > 30:
		score -= 40
	case d > 14:
		score -= 20
	case d > 7:
		score -= 10
	}

	switch n := in.MessagesPastMonth; {
	case n > 100:
		score += 30
	case n > 50:
		score += 20
	case n > 20:
		score += 10
	}

	score -= in.Warnings * 10

	if score < 0 {
		return 0
	}
	return score
}
