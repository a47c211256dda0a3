package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// AssessmentRequest asks for a flood assessment and allocation. Either
// GaugeIDs or ZoneProbabilities must be set; explicit probabilities skip
// forecasting entirely.
type AssessmentRequest struct {
	ID                string             `json:"request_id,omitempty" yaml:"request_id"`
	GaugeIDs          []string           `json:"gauge_ids,omitempty" yaml:"gauge_ids"`
	ZoneIDs           []string           `json:"zone_ids,omitempty" yaml:"zone_ids"`
	ZoneProbabilities map[string]float64 `json:"zone_probabilities,omitempty" yaml:"zone_probabilities"`
	TotalUnits        int                `json:"total_units" yaml:"total_units"`
	Mode              *string            `json:"mode,omitempty" yaml:"mode"`
	HorizonHours      int                `json:"horizon_hours,omitempty" yaml:"horizon_hours"`
}

// AllocationMode resolves the requested mode. DefaultMode applies only when
// the request omits mode; a present but blank mode is invalid.
func (r AssessmentRequest) AllocationMode() (Mode, error) {
	if r.Mode == nil {
		return DefaultMode, nil
	}
	return ParseMode(*r.Mode)
}

// Assessment is the outcome of an AssessmentRequest.
type Assessment struct {
	ID                   string           `json:"id"`
	Mode                 Mode             `json:"mode"`
	TotalUnits           int              `json:"total_units"`
	HorizonHours         int              `json:"horizon_hours,omitempty"`
	Forecasts            []ForecastResult `json:"forecasts,omitempty"`
	AggregateProbability float64          `json:"aggregate_probability"`
	Recommendations      []Recommendation `json:"recommendations"`
	Diagnostics          []Diagnostic     `json:"diagnostics,omitempty"`
	ProcessedAt          time.Time        `json:"processed_at"`
}

// AllocatedUnits sums the units across recommendations.
func (a Assessment) AllocatedUnits() int {
	total := 0
	for _, r := range a.Recommendations {
		total += r.Units
	}
	return total
}
