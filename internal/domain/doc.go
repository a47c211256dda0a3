// Package domain is the flood decision-support engine: it forecasts river
// levels from gauge readings and recommends how to split a fixed budget of
// resource units across geographic zones.
//
// # Data Flow
//
//	gauge readings -> Forecaster -> flood probability per gauge
//	  -> aggregate probability -> ProjectZones -> per-zone probability
//	  -> ZoneTable.BuildInputs (vulnerability) -> Allocate -> recommendations
//
// Every function here is pure over its inputs. The zone table is an immutable
// snapshot shared by all callers, and time enters only through an injected
// clockwork.Clock, so assessments can run on any number of goroutines without
// coordination.
//
// # Gauge Readings
//
// Readings are ordered most recent first. Only readings flagged "good" (or
// left unflagged by a provider that already filtered them) are eligible, and
// at most 72 are used. The trend baseline is the 6th most recent eligible
// reading (index 5):
//
//	trend_rate = (current - baseline) / hours(baseline.time, current.time)
//	damping    = e^(-0.02 * horizon_hours)
//	predicted  = max(0, current + trend_rate * horizon_hours * damping)
//
// Direction is rising above +0.02/h, falling below -0.02/h, steady otherwise.
// Confidence is high from 48 readings, medium from 24, low below that.
//
// # Zone Vulnerability
//
//	vulnerability = 0.35*river_proximity + 0.30*elevation_risk
//	              + 0.20*population_density + 0.15*critical_infrastructure_score
//
// A zone with at least one hospital counts as critical infrastructure.
// Unknown zone ids take vulnerability 0.5 and produce a diagnostic instead of
// failing the request.
//
// # Impact and Allocation
//
// The impact score is probability x vulnerability, classified as:
//
//	iz < 0.3 NORMAL | < 0.6 ADVISORY | < 0.8 WARNING | >= 0.8 CRITICAL
//
// Three allocation modes turn impact into integer units:
//
//	crisp:        floor(budget * fraction by label), 0/0.1/0.3/0.5 (0.6 critical infra)
//	fuzzy:        round(budget * defuzzified fraction), triangular memberships
//	proportional: round(budget * iz / sum(iz))
//
// Crisp and fuzzy guarantee at least one unit to any zone above NORMAL when
// the budget allows, then scale down if the raw total exceeds the budget.
// Proportional has no such floor. No mode ever allocates more than the budget.
package domain
