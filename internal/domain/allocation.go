package domain

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects the allocation strategy.
type Mode string

const (
	ModeCrisp        Mode = "crisp"
	ModeFuzzy        Mode = "fuzzy"
	ModeProportional Mode = "proportional"

	// DefaultMode applies only when a request omits the mode entirely.
	DefaultMode = ModeCrisp
)

// Modes lists the allowed allocation modes.
var Modes = []Mode{ModeCrisp, ModeFuzzy, ModeProportional}

// Crisp budget fractions by label.
const (
	CrispAdvisoryFraction      = 0.1
	CrispWarningFraction       = 0.3
	CrispCriticalFraction      = 0.5
	CrispCriticalInfraFraction = 0.6
)

// ParseMode validates a mode string, ignoring case and surrounding space.
// Blank and unknown values are rejected.
func ParseMode(s string) (Mode, error) {
	if m := Mode(strings.ToLower(strings.TrimSpace(s))); m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("%w %q: must be one of crisp, fuzzy, proportional", ErrInvalidMode, s)
}

// Valid reports whether m is one of Modes.
func (m Mode) Valid() bool {
	for _, allowed := range Modes {
		if m == allowed {
			return true
		}
	}
	return false
}

// Recommendation is the allocation outcome for one zone.
type Recommendation struct {
	ZoneID      string      `json:"zone_id"`
	Label       ImpactLabel `json:"impact_label"`
	Units       int         `json:"units"`
	ImpactScore float64     `json:"impact_score"`
	Mode        Mode        `json:"mode"`
}

// Allocate splits totalUnits across zones using mode. Recommendations keep the
// order of zones. The sum of allocated units never exceeds totalUnits; a
// negative budget is treated as zero.
func Allocate(zones []ZoneInput, totalUnits int, mode Mode) ([]Recommendation, error) {
	if mode == "" {
		mode = DefaultMode
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("allocate: %w %q", ErrInvalidMode, mode)
	}
	budget := max(totalUnits, 0)

	recs := make([]Recommendation, len(zones))
	scores := make([]float64, len(zones))
	for i, z := range zones {
		iz := ImpactScore(z.Probability, z.Vulnerability)
		scores[i] = iz
		recs[i] = Recommendation{
			ZoneID:      z.ID,
			Label:       ClassifyImpact(iz),
			ImpactScore: iz,
			Mode:        mode,
		}
	}

	var units []int
	switch mode {
	case ModeFuzzy:
		units = make([]int, len(zones))
		for i, z := range zones {
			units[i] = fuzzyUnits(scores[i], z.CriticalInfrastructure, budget)
		}
		normalize(units, scores, budget)
	case ModeProportional:
		units = proportionalUnits(scores, budget)
	default:
		units = make([]int, len(zones))
		for i, z := range zones {
			units[i] = crispUnits(recs[i].Label, z.CriticalInfrastructure, budget)
		}
		normalize(units, scores, budget)
	}

	for i := range recs {
		recs[i].Units = units[i]
	}
	return recs, nil
}

func crispUnits(label ImpactLabel, criticalInfra bool, budget int) int {
	var fraction float64
	switch label {
	case ImpactAdvisory:
		fraction = CrispAdvisoryFraction
	case ImpactWarning:
		fraction = CrispWarningFraction
	case ImpactCritical:
		fraction = CrispCriticalFraction
		if criticalInfra {
			fraction = CrispCriticalInfraFraction
		}
	}

	units := int(math.Floor(float64(budget) * fraction))
	if units == 0 && label > ImpactNormal && budget > 0 {
		units = 1
	}
	return units
}

func fuzzyUnits(iz float64, criticalInfra bool, budget int) int {
	units := int(math.Round(float64(budget) * fuzzyFraction(iz, criticalInfra)))
	if units == 0 && iz >= AdvisoryImpactThreshold && budget > 0 {
		units = 1
	}
	return units
}

// proportionalUnits shares the budget by impact score. Rounding can overshoot
// the budget by up to half a unit per zone; the overshoot is taken back from
// the zones that were rounded up the most. No floor guarantee applies.
func proportionalUnits(scores []float64, budget int) []int {
	units := make([]int, len(scores))
	var totalScore float64
	for _, iz := range scores {
		totalScore += iz
	}
	if totalScore <= 0 || budget == 0 {
		return units
	}

	roundUp := make([]float64, len(scores))
	total := 0
	for i, iz := range scores {
		exact := float64(budget) * iz / totalScore
		units[i] = int(math.Round(exact))
		roundUp[i] = float64(units[i]) - exact
		total += units[i]
	}

	for ; total > budget; total-- {
		pick := -1
		for i := range units {
			if units[i] == 0 {
				continue
			}
			if pick < 0 || roundUp[i] > roundUp[pick] {
				pick = i
			}
		}
		units[pick]--
		roundUp[pick]--
	}
	return units
}

// normalize scales raw crisp/fuzzy allocations down when they exceed the
// budget. Positive allocations are floored at 1. When more zones hold a unit
// than the budget has units, the lowest-impact zones drop to 0.
func normalize(units []int, scores []float64, budget int) {
	total := sum(units)
	if total <= budget {
		return
	}

	scale := float64(budget) / float64(total)
	for i, u := range units {
		if u <= 0 {
			continue
		}
		units[i] = max(int(math.Floor(float64(u)*scale)), 1)
	}

	for excess := sum(units) - budget; excess > 0; excess-- {
		units[trimTarget(units, scores)]--
	}
}

// trimTarget picks the allocation to give up one unit: the largest allocation
// above 1 if any (lower impact first on ties), otherwise the lowest-impact
// zone still holding a unit.
func trimTarget(units []int, scores []float64) int {
	pick := -1
	for i, u := range units {
		if u <= 1 {
			continue
		}
		if pick < 0 || u > units[pick] || (u == units[pick] && scores[i] < scores[pick]) {
			pick = i
		}
	}
	if pick >= 0 {
		return pick
	}
	for i, u := range units {
		if u <= 0 {
			continue
		}
		if pick < 0 || scores[i] < scores[pick] {
			pick = i
		}
	}
	return pick
}

func sum(units []int) int {
	total := 0
	for _, u := range units {
		total += u
	}
	return total
}
