// Package scoring holds the pure score math shared by the step engines:
// extracting a discrete score from a simulated answer distribution and
// computing weighted audience preferences.
package scoring

import "math"

// ChoiceOptions1to6 is the answer-option set for rubric questions, in
// submission order. Extraction iterates this order, which is what makes
// tie-breaking deterministic.
var ChoiceOptions1to6 = []string{"1", "2", "3", "4", "5", "6"}

// MidpointChoice is the fallback when a distribution is missing or garbled.
// Extraction problems are never fatal; the unit gets the midpoint instead.
const MidpointChoice = 3

// PreferenceOption is one ordinal answer label with its numeric value.
type PreferenceOption struct {
	Label string
	Value float64
}

// PreferenceOptions is the fixed 5-point ordinal set for headline testing,
// in submission order.
var PreferenceOptions = []PreferenceOption{
	{Label: "Very Appealing", Value: 5},
	{Label: "Appealing", Value: 4},
	{Label: "Neutral", Value: 3},
	{Label: "Not Appealing", Value: 2},
	{Label: "Very Unappealing", Value: 1},
}

// NeutralPreference is the fallback preference when extraction fails.
const NeutralPreference = 3.0

// PreferenceLabels returns just the labels, for submission payloads.
func PreferenceLabels() []string {
	labels := make([]string, len(PreferenceOptions))
	for i, o := range PreferenceOptions {
		labels[i] = o.Label
	}
	return labels
}

// TopChoice returns the integer option with the highest percentage share.
// Options are scanned in their declared order, so a tie at the maximum goes
// to the first-seen option. Missing or unparseable data yields the midpoint.
func TopChoice(percentages map[string]float64) int {
	if len(percentages) == 0 {
		return MidpointChoice
	}

	best := MidpointChoice
	bestShare := 0.0
	for i, label := range ChoiceOptions1to6 {
		share, ok := percentages[label]
		if !ok {
			continue
		}
		if share > bestShare {
			bestShare = share
			best = i + 1
		}
	}
	if bestShare == 0 {
		// Every known option was absent or at zero.
		return MidpointChoice
	}
	return best
}

// WeightedPreference computes the share-weighted average over the 5-point
// ordinal set, rounded to 2 decimals. Unknown labels count as neutral.
// Missing or empty distributions yield the neutral fallback.
func WeightedPreference(percentages map[string]float64) float64 {
	if len(percentages) == 0 {
		return NeutralPreference
	}

	values := make(map[string]float64, len(PreferenceOptions))
	for _, o := range PreferenceOptions {
		values[o.Label] = o.Value
	}

	var total, weight float64
	for _, o := range PreferenceOptions {
		share, ok := percentages[o.Label]
		if !ok {
			continue
		}
		total += values[o.Label] * share
		weight += share
	}
	// Labels outside the known set still contribute their share at neutral,
	// matching the original extraction behavior.
	for label, share := range percentages {
		if _, known := values[label]; !known {
			total += NeutralPreference * share
			weight += share
		}
	}

	if weight <= 0 {
		return NeutralPreference
	}
	return math.Round(total/weight*100) / 100
}

// ImprovementPercent computes the winner's gain over the original score as a
// percentage, rounded to 1 decimal. Returns 0 when the original is
// non-positive (no meaningful baseline).
func ImprovementPercent(winner, original float64) float64 {
	if original <= 0 {
		return 0
	}
	return math.Round((winner-original)/original*1000) / 10
}
