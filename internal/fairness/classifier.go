// Package fairness maps fairness scores to tiers and personas.
//
// Classify is the only place the tier boundaries live. Anything that needs a
// label, a persona or a tier-based percentage goes through this package.
package fairness

// Label is the categorical tier derived from a fairness score.
type Label string

const (
	LabelFair     Label = "FAIR"
	LabelModerate Label = "MODERATE"
	LabelSevere   Label = "SEVERE"
)

// Score bounds. Both ends of each tier are inclusive.
const (
	MinScore = 0
	MaxScore = 100

	FairMax   = 30
	SevereMin = 70
)

// Classify maps a score onto its tier: 0-30 FAIR, 31-69 MODERATE, 70-100 SEVERE.
// Scores outside [0,100] are clamped first.
func Classify(score int) Label {
	score = Clamp(score)
	switch {
	case score <= FairMax:
		return LabelFair
	case score >= SevereMin:
		return LabelSevere
	default:
		return LabelModerate
	}
}

// Clamp limits a score to [MinScore, MaxScore].
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Valid reports whether score is inside [MinScore, MaxScore].
func Valid(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// Analytics counters use strict inequalities around FairMax, so a score of
// exactly 30 is neither scammed nor fair there while Classify calls it FAIR.
// The stored statistics have always been computed this way.

// IsScammed reports whether a purchase counts toward totalScammed (score > 30).
func IsScammed(score int) bool {
	return score > FairMax
}

// IsFairDeal reports whether a purchase counts toward totalFairDeals (score < 30).
func IsFairDeal(score int) bool {
	return score < FairMax
}

// Valid reports whether l is one of the three tiers.
func (l Label) Valid() bool {
	switch l {
	case LabelFair, LabelModerate, LabelSevere:
		return true
	}
	return false
}

func (l Label) String() string { return string(l) }
