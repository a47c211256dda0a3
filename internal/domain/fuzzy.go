package domain

// triangle is a triangular membership function with feet at a and c and its
// peak at b. a == b or b == c gives a shoulder with no ramp on that side.
type triangle struct {
	a, b, c float64
}

func (t triangle) membership(x float64) float64 {
	switch {
	case x < t.a || x > t.c:
		return 0
	case x == t.b:
		return 1
	case x < t.b:
		if t.b == t.a {
			return 1
		}
		return (x - t.a) / (t.b - t.a)
	default:
		if t.c == t.b {
			return 1
		}
		return (t.c - x) / (t.c - t.b)
	}
}

// fuzzySet pairs a label's membership function with its target budget fraction.
type fuzzySet struct {
	label  ImpactLabel
	shape  triangle
	target float64
}

var fuzzySets = [...]fuzzySet{
	{label: ImpactNormal, shape: triangle{0, 0, 0.3}, target: 0.0},
	{label: ImpactAdvisory, shape: triangle{0.2, 0.45, 0.7}, target: 0.1},
	{label: ImpactWarning, shape: triangle{0.4, 0.7, 0.9}, target: 0.3},
	{label: ImpactCritical, shape: triangle{0.7, 1.0, 1.0}, target: 0.5},
}

const (
	// FuzzyCriticalInfraBonus is added when a critical-infrastructure zone
	// scores at or above the CRITICAL cut point.
	FuzzyCriticalInfraBonus = 0.1
	// FuzzyMaxFraction caps the fuzzy budget fraction.
	FuzzyMaxFraction = 0.6
)

// memberships returns the degree of membership of iz in each label's set,
// indexed by ImpactLabel.
func memberships(iz float64) [4]float64 {
	var m [4]float64
	for _, s := range fuzzySets {
		m[s.label] = s.shape.membership(iz)
	}
	return m
}

// fuzzyFraction defuzzifies iz into a budget fraction: the membership-weighted
// average of the per-label targets, plus the critical-infrastructure bonus,
// clamped to [0, FuzzyMaxFraction].
func fuzzyFraction(iz float64, criticalInfra bool) float64 {
	mu := memberships(iz)
	var weighted, total float64
	for _, s := range fuzzySets {
		weighted += mu[s.label] * s.target
		total += mu[s.label]
	}

	var fraction float64
	if total > 0 {
		fraction = weighted / total
	}
	if criticalInfra && iz >= CriticalImpactThreshold {
		fraction += FuzzyCriticalInfraBonus
	}
	return clamp(fraction, 0, FuzzyMaxFraction)
}
