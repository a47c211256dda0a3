package domain

import (
	"fmt"
	"sort"
)

// Vulnerability weights. They sum to 1 so a zone with every attribute at 1
// scores a vulnerability of exactly 1.
const (
	WeightRiverProximity         = 0.35
	WeightElevationRisk          = 0.30
	WeightPopulationDensity      = 0.20
	WeightCriticalInfrastructure = 0.15

	// DefaultVulnerability is assigned to zone ids missing from the table.
	DefaultVulnerability = 0.5
)

// DiagnosticUnknownZone marks a zone id that was not found in the zone table.
const DiagnosticUnknownZone = "unknown_zone"

// ZoneProfile holds the static exposure attributes of a geographic zone.
// Attributes are normalized to [0,1]; a missing attribute is zero.
type ZoneProfile struct {
	ID                          string  `json:"id" yaml:"id"`
	Name                        string  `json:"name" yaml:"name"`
	RiverProximity              float64 `json:"river_proximity" yaml:"river_proximity"`
	ElevationRisk               float64 `json:"elevation_risk" yaml:"elevation_risk"`
	PopulationDensity           float64 `json:"population_density" yaml:"population_density"`
	CriticalInfrastructureScore float64 `json:"critical_infrastructure_score" yaml:"critical_infrastructure_score"`
	HospitalCount               int     `json:"hospital_count" yaml:"hospital_count"`
}

// Vulnerability is the weighted sum of the zone's clamped attributes.
func (z ZoneProfile) Vulnerability() float64 {
	return WeightRiverProximity*clamp01(z.RiverProximity) +
		WeightElevationRisk*clamp01(z.ElevationRisk) +
		WeightPopulationDensity*clamp01(z.PopulationDensity) +
		WeightCriticalInfrastructure*clamp01(z.CriticalInfrastructureScore)
}

// IsCriticalInfrastructure reports whether the zone hosts at least one hospital.
func (z ZoneProfile) IsCriticalInfrastructure() bool {
	return z.HospitalCount > 0
}

// ZoneTable is an immutable snapshot of zone profiles built once at start-up.
// It is safe for concurrent readers. A nil *ZoneTable behaves as an empty table.
type ZoneTable struct {
	zones map[string]ZoneProfile
	ids   []string
}

// NewZoneTable copies profiles into a lookup table. When an id repeats, the
// later profile wins.
func NewZoneTable(profiles []ZoneProfile) *ZoneTable {
	t := &ZoneTable{zones: make(map[string]ZoneProfile, len(profiles))}
	for _, p := range profiles {
		if _, seen := t.zones[p.ID]; !seen {
			t.ids = append(t.ids, p.ID)
		}
		t.zones[p.ID] = p
	}
	sort.Strings(t.ids)
	return t
}

// Lookup returns the profile for id.
func (t *ZoneTable) Lookup(id string) (ZoneProfile, bool) {
	if t == nil {
		return ZoneProfile{}, false
	}
	p, ok := t.zones[id]
	return p, ok
}

// IDs returns every zone id in ascending order.
func (t *ZoneTable) IDs() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.ids...)
}

// Len returns the number of zones in the table.
func (t *ZoneTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ids)
}

// Diagnostic is a non-fatal note attached to an assessment.
type Diagnostic struct {
	Code    string `json:"code"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ZoneInput is the per-zone allocation input.
type ZoneInput struct {
	ID                     string  `json:"id"`
	Probability            float64 `json:"probability"`
	Vulnerability          float64 `json:"vulnerability"`
	CriticalInfrastructure bool    `json:"is_critical_infra"`
}

// BuildInputs resolves each zone id in probabilities against the table and
// returns allocation inputs ordered by zone id. Unknown ids fall back to
// DefaultVulnerability with no critical infrastructure and yield a diagnostic.
func (t *ZoneTable) BuildInputs(probabilities map[string]float64) ([]ZoneInput, []Diagnostic) {
	ids := make([]string, 0, len(probabilities))
	for id := range probabilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	inputs := make([]ZoneInput, 0, len(ids))
	var diags []Diagnostic
	for _, id := range ids {
		in := ZoneInput{ID: id, Probability: clamp01(probabilities[id])}
		profile, ok := t.Lookup(id)
		if !ok {
			in.Vulnerability = DefaultVulnerability
			diags = append(diags, Diagnostic{
				Code:    DiagnosticUnknownZone,
				Subject: id,
				Message: fmt.Sprintf("zone %q not in zone table, using default vulnerability %.1f", id, DefaultVulnerability),
			})
		} else {
			in.Vulnerability = profile.Vulnerability()
			in.CriticalInfrastructure = profile.IsCriticalInfrastructure()
		}
		inputs = append(inputs, in)
	}
	return inputs, diags
}
