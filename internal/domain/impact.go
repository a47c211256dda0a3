package domain

import "fmt"

// ImpactLabel is an ordinal risk label. Higher values rank higher.
type ImpactLabel int

const (
	ImpactNormal ImpactLabel = iota
	ImpactAdvisory
	ImpactWarning
	ImpactCritical
)

// Impact cut points, lower bounds inclusive.
const (
	AdvisoryImpactThreshold = 0.3
	WarningImpactThreshold  = 0.6
	CriticalImpactThreshold = 0.8
)

var impactLabelNames = [...]string{
	ImpactNormal:   "NORMAL",
	ImpactAdvisory: "ADVISORY",
	ImpactWarning:  "WARNING",
	ImpactCritical: "CRITICAL",
}

func (l ImpactLabel) String() string {
	if l < ImpactNormal || l > ImpactCritical {
		return fmt.Sprintf("ImpactLabel(%d)", int(l))
	}
	return impactLabelNames[l]
}

// MarshalText encodes the label by name.
func (l ImpactLabel) MarshalText() ([]byte, error) {
	if l < ImpactNormal || l > ImpactCritical {
		return nil, fmt.Errorf("marshal impact label: unknown value %d", int(l))
	}
	return []byte(impactLabelNames[l]), nil
}

// UnmarshalText decodes a label name.
func (l *ImpactLabel) UnmarshalText(text []byte) error {
	for i, name := range impactLabelNames {
		if name == string(text) {
			*l = ImpactLabel(i)
			return nil
		}
	}
	return fmt.Errorf("unmarshal impact label: unknown name %q", text)
}

// ImpactScore is the product of the clamped probability and vulnerability.
func ImpactScore(probability, vulnerability float64) float64 {
	return clamp01(probability) * clamp01(vulnerability)
}

// ClassifyImpact maps an impact score to its label. It is total and monotonic;
// NaN classifies as NORMAL.
func ClassifyImpact(iz float64) ImpactLabel {
	switch {
	case iz >= CriticalImpactThreshold:
		return ImpactCritical
	case iz >= WarningImpactThreshold:
		return ImpactWarning
	case iz >= AdvisoryImpactThreshold:
		return ImpactAdvisory
	default:
		return ImpactNormal
	}
}
