package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// Quality is the quality flag attached to a gauge reading.
type Quality string

const (
	QualityGood    Quality = "good"
	QualitySuspect Quality = "suspect"
	QualityBad     Quality = "bad"
	QualityMissing Quality = "missing"
)

// TrendDirection describes the sign of the water-level trend.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendSteady  TrendDirection = "steady"
)

// Confidence grades a forecast by how much history backs it.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Forecast tuning constants.
const (
	MaxForecastReadings      = 72
	MinTrendReadings         = 6
	TrendBaselineIndex       = MinTrendReadings - 1 // 6th most recent reading
	MediumConfidenceReadings = 24
	HighConfidenceReadings   = 48

	MinHorizonHours = 1
	MaxHorizonHours = 168

	DampingRate          = 0.02
	TrendDirectionCutoff = 0.02 // level units per hour

	AlertFloodProbability   = 0.9
	WarningFloodProbability = 0.6
	BelowWarningMaxFlood    = 0.5

	trendRatePlaces   = 3
	probabilityPlaces = 2
)

// GaugeReading is one water-level observation.
type GaugeReading struct {
	Time    time.Time `json:"time" yaml:"time"`
	Level   float64   `json:"level" yaml:"level"`
	Quality Quality   `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// Eligible reports whether the reading may feed a forecast. Readings with no
// flag are treated as good; providers filter on quality before returning them.
func (r GaugeReading) Eligible() bool {
	return r.Quality == QualityGood || r.Quality == ""
}

// Thresholds are the optional per-gauge alert and warning levels.
type Thresholds struct {
	Alert   *float64 `json:"alert,omitempty" yaml:"alert,omitempty"`
	Warning *float64 `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// ForecastResult is the outcome of a river-level forecast.
type ForecastResult struct {
	GaugeID          string         `json:"gauge_id,omitempty"`
	CurrentLevel     float64        `json:"current_level"`
	CurrentTime      time.Time      `json:"current_time"`
	PredictedLevel   float64        `json:"predicted_level"`
	PredictedTime    time.Time      `json:"predicted_time"`
	HorizonHours     int            `json:"horizon_hours"`
	TrendRate        float64        `json:"trend_rate"`
	Direction        TrendDirection `json:"trend_direction"`
	Confidence       Confidence     `json:"confidence"`
	FloodProbability float64        `json:"flood_probability"`
	ReadingCount     int            `json:"reading_count"`
	AlertETA         *time.Time     `json:"alert_eta,omitempty"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

type forecastOptions struct {
	gaugeID  string
	fallback TrendDirection
}

// ForecastOption customizes a single forecast.
type ForecastOption func(*forecastOptions)

// WithGaugeID labels the result with the gauge it was computed for.
func WithGaugeID(id string) ForecastOption {
	return func(o *forecastOptions) { o.gaugeID = id }
}

// WithFallbackDirection sets the direction reported when there is too little
// history to compute a trend.
func WithFallbackDirection(d TrendDirection) ForecastOption {
	return func(o *forecastOptions) { o.fallback = d }
}

// Forecaster computes damped-trend river-level forecasts. It holds no mutable
// state; the clock only stamps GeneratedAt and AlertETA.
type Forecaster struct {
	clock clockwork.Clock
}

// NewForecaster creates a Forecaster. A nil clock uses wall time.
func NewForecaster(clock clockwork.Clock) *Forecaster {
	return &Forecaster{clock: orRealClock(clock)}
}

// Forecast projects the level horizonHours ahead from readings ordered most
// recent first. Ineligible readings are dropped and at most
// MaxForecastReadings are used. The horizon is clamped to
// [MinHorizonHours, MaxHorizonHours]. It returns ErrNoData when no eligible
// reading remains.
func (f *Forecaster) Forecast(readings []GaugeReading, horizonHours int, th Thresholds, opts ...ForecastOption) (ForecastResult, error) {
	o := forecastOptions{fallback: TrendSteady}
	for _, opt := range opts {
		opt(&o)
	}

	eligible := EligibleReadings(readings)
	if len(eligible) == 0 {
		if o.gaugeID != "" {
			return ForecastResult{}, fmt.Errorf("forecast gauge %s: %w", o.gaugeID, ErrNoData)
		}
		return ForecastResult{}, fmt.Errorf("forecast: %w", ErrNoData)
	}

	horizon := ClampHorizon(horizonHours)
	current := eligible[0]
	rate, direction := trend(eligible, o.fallback)

	predicted := math.Max(0, current.Level+rate*float64(horizon)*Damping(horizon))
	now := f.clock.Now()

	return ForecastResult{
		GaugeID:          o.gaugeID,
		CurrentLevel:     current.Level,
		CurrentTime:      current.Time,
		PredictedLevel:   predicted,
		PredictedTime:    current.Time.Add(time.Duration(horizon) * time.Hour),
		HorizonHours:     horizon,
		TrendRate:        roundTo(rate, trendRatePlaces),
		Direction:        direction,
		Confidence:       confidenceFor(len(eligible)),
		FloodProbability: roundTo(FloodProbability(predicted, th), probabilityPlaces),
		ReadingCount:     len(eligible),
		AlertETA:         alertETA(now, current.Level, rate, th),
		GeneratedAt:      now,
	}, nil
}

// EligibleReadings keeps eligible readings in order, capped at MaxForecastReadings.
func EligibleReadings(readings []GaugeReading) []GaugeReading {
	out := make([]GaugeReading, 0, min(len(readings), MaxForecastReadings))
	for _, r := range readings {
		if !r.Eligible() {
			continue
		}
		out = append(out, r)
		if len(out) == MaxForecastReadings {
			break
		}
	}
	return out
}

// ClampHorizon bounds a horizon to [MinHorizonHours, MaxHorizonHours].
func ClampHorizon(hours int) int {
	return min(max(hours, MinHorizonHours), MaxHorizonHours)
}

// Damping is the exponential decay applied to the trend term at a horizon.
func Damping(horizonHours int) float64 {
	return math.Exp(-DampingRate * float64(horizonHours))
}

// trend compares the current reading with the 6th most recent one. With too
// little history, or no elapsed time between the two, the rate is 0.
func trend(readings []GaugeReading, fallback TrendDirection) (float64, TrendDirection) {
	if len(readings) < MinTrendReadings {
		return 0, fallback
	}

	current := readings[0]
	baseline := readings[TrendBaselineIndex]
	elapsed := current.Time.Sub(baseline.Time).Hours()
	if elapsed <= 0 {
		return 0, TrendSteady
	}

	rate := (current.Level - baseline.Level) / elapsed
	switch {
	case rate > TrendDirectionCutoff:
		return rate, TrendRising
	case rate < -TrendDirectionCutoff:
		return rate, TrendFalling
	default:
		return rate, TrendSteady
	}
}

func confidenceFor(n int) Confidence {
	switch {
	case n >= HighConfidenceReadings:
		return ConfidenceHigh
	case n >= MediumConfidenceReadings:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// FloodProbability derives a probability from a predicted level and the
// gauge thresholds. Without a warning threshold the ramp below warning is
// unavailable and only the alert level can raise the probability.
func FloodProbability(predicted float64, th Thresholds) float64 {
	switch {
	case th.Alert != nil && predicted >= *th.Alert:
		return AlertFloodProbability
	case th.Warning != nil && predicted >= *th.Warning:
		return WarningFloodProbability
	case th.Warning != nil && *th.Warning > 0:
		return clamp(predicted / *th.Warning * BelowWarningMaxFlood, 0, BelowWarningMaxFlood)
	default:
		return 0
	}
}

// alertETA estimates when a rising level crosses the alert threshold, by
// linear extrapolation of the undamped trend from now.
func alertETA(now time.Time, level, rate float64, th Thresholds) *time.Time {
	if th.Alert == nil || rate <= TrendDirectionCutoff || level >= *th.Alert {
		return nil
	}
	hours := (*th.Alert - level) / rate
	eta := now.Add(time.Duration(hours * float64(time.Hour)))
	return &eta
}
