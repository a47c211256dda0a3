package domain

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Multi-gauge aggregation constants.
const (
	// GaugeWarningBase is the base probability at the warning level; it ramps
	// linearly up to AlertFloodProbability at the alert level.
	GaugeWarningBase = 0.5
	// GaugeTrendDelta is the 6-reading level change beyond which the trend
	// adjustment applies.
	GaugeTrendDelta      = 0.5
	GaugeTrendAdjustment = 0.1
)

// ProjectZoneProbability spreads an aggregate flood probability onto a zone.
// Zones far from the river keep half the aggregate; adjacent zones keep all of it.
func ProjectZoneProbability(aggregate, riverProximity float64) float64 {
	return math.Min(1, clamp01(aggregate)*(0.5+clamp01(riverProximity)*0.5))
}

// GaugeProbability scores one gauge from its latest eligible reading and its
// 6-reading delta. Readings are ordered most recent first.
func GaugeProbability(readings []GaugeReading, th Thresholds) float64 {
	eligible := EligibleReadings(readings)
	if len(eligible) == 0 {
		return 0
	}

	p := thresholdBase(eligible[0].Level, th)
	if len(eligible) >= MinTrendReadings {
		delta := eligible[0].Level - eligible[TrendBaselineIndex].Level
		switch {
		case delta > GaugeTrendDelta:
			p += GaugeTrendAdjustment
		case delta < -GaugeTrendDelta:
			p -= GaugeTrendAdjustment
		}
	}
	return clamp01(p)
}

func thresholdBase(level float64, th Thresholds) float64 {
	switch {
	case th.Alert != nil && level >= *th.Alert:
		return AlertFloodProbability
	case th.Warning != nil && level >= *th.Warning:
		if th.Alert == nil || *th.Alert <= *th.Warning {
			return GaugeWarningBase
		}
		span := *th.Alert - *th.Warning
		return GaugeWarningBase + (AlertFloodProbability-GaugeWarningBase)*(level-*th.Warning)/span
	default:
		return 0
	}
}

// AggregateProbability is the arithmetic mean of per-gauge probabilities, or
// 0 for no gauges.
func AggregateProbability(probabilities []float64) float64 {
	if len(probabilities) == 0 {
		return 0
	}
	return clamp01(stat.Mean(probabilities, nil))
}

// ProjectZones projects aggregate onto each zone id. Ids missing from the
// table project with a river proximity of 0.
func ProjectZones(aggregate float64, zones *ZoneTable, ids []string) map[string]float64 {
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		profile, _ := zones.Lookup(id)
		out[id] = ProjectZoneProbability(aggregate, profile.RiverProximity)
	}
	return out
}
