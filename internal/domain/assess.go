package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Assessment defaults.
const (
	DefaultReadingWindow = 72 * time.Hour
	DefaultHorizonHours  = 6
)

// DiagnosticNoData marks a gauge that had no eligible readings.
const DiagnosticNoData = "no_data"

// maxConcurrentFetches bounds provider calls in flight for one request.
const maxConcurrentFetches = 8

// ReadingProvider returns up to limit eligible readings for a gauge observed
// at or after since, most recent first.
type ReadingProvider interface {
	RecentReadings(ctx context.Context, gaugeID string, since time.Time, limit int) ([]GaugeReading, error)
}

// ThresholdProvider returns the configured levels for a gauge. A gauge with
// no configuration yields empty Thresholds and a nil error.
type ThresholdProvider interface {
	Thresholds(ctx context.Context, gaugeID string) (Thresholds, error)
}

// Assessor runs the full decision flow: forecast each gauge, aggregate,
// project onto zones, classify and allocate.
type Assessor struct {
	zones          *ZoneTable
	readings       ReadingProvider
	thresholds     ThresholdProvider
	forecaster     *Forecaster
	clock          clockwork.Clock
	logger         *slog.Logger
	window         time.Duration
	defaultHorizon int
}

// AssessorOption customizes an Assessor.
type AssessorOption func(*Assessor)

// WithReadingWindow sets how far back readings are fetched.
func WithReadingWindow(d time.Duration) AssessorOption {
	return func(a *Assessor) {
		if d > 0 {
			a.window = d
		}
	}
}

// WithDefaultHorizon sets the horizon used when a request omits one.
func WithDefaultHorizon(hours int) AssessorOption {
	return func(a *Assessor) {
		if hours > 0 {
			a.defaultHorizon = hours
		}
	}
}

// NewAssessor creates an Assessor. thresholds may be nil, in which case no
// gauge has thresholds. A nil clock uses wall time and a nil logger uses
// slog.Default.
func NewAssessor(zones *ZoneTable, readings ReadingProvider, thresholds ThresholdProvider, clock clockwork.Clock, logger *slog.Logger, opts ...AssessorOption) *Assessor {
	clock = orRealClock(clock)
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assessor{
		zones:          zones,
		readings:       readings,
		thresholds:     thresholds,
		forecaster:     NewForecaster(clock),
		clock:          clock,
		logger:         logger,
		window:         DefaultReadingWindow,
		defaultHorizon: DefaultHorizonHours,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assess evaluates a request. It fails with ErrInvalidMode for a bad mode and
// with ErrNoData when no requested gauge has eligible readings, in which case
// no allocation is attempted.
func (a *Assessor) Assess(ctx context.Context, req AssessmentRequest) (Assessment, error) {
	mode, err := req.AllocationMode()
	if err != nil {
		return Assessment{}, fmt.Errorf("assess %s: %w", req.ID, err)
	}

	out := Assessment{
		ID:         req.ID,
		Mode:       mode,
		TotalUnits: req.TotalUnits,
	}

	probabilities := req.ZoneProbabilities
	if len(probabilities) == 0 {
		if len(req.GaugeIDs) == 0 {
			return Assessment{}, fmt.Errorf("assess %s: %w", req.ID, ErrEmptyRequest)
		}
		if req.HorizonHours == 0 {
			req.HorizonHours = a.defaultHorizon
		}
		out.HorizonHours = ClampHorizon(req.HorizonHours)

		if err := a.forecastGauges(ctx, req, &out); err != nil {
			return Assessment{}, fmt.Errorf("assess %s: %w", req.ID, err)
		}

		ids := req.ZoneIDs
		if len(ids) == 0 {
			ids = a.zones.IDs()
		}
		probabilities = ProjectZones(out.AggregateProbability, a.zones, ids)
	}

	inputs, diags := a.zones.BuildInputs(probabilities)
	for _, d := range diags {
		a.logger.Warn("unknown zone, using default vulnerability",
			"request_id", req.ID,
			"zone_id", d.Subject,
			"vulnerability", DefaultVulnerability,
		)
	}
	out.Diagnostics = append(out.Diagnostics, diags...)

	recs, err := Allocate(inputs, req.TotalUnits, mode)
	if err != nil {
		return Assessment{}, fmt.Errorf("assess %s: %w", req.ID, err)
	}
	out.Recommendations = recs
	out.ProcessedAt = a.clock.Now()
	return out, nil
}

type gaugeData struct {
	readings   []GaugeReading
	thresholds Thresholds
}

// fetchGauges loads readings and thresholds for every gauge concurrently.
// Results are indexed like ids; the first provider error cancels the rest.
func (a *Assessor) fetchGauges(ctx context.Context, ids []string) ([]gaugeData, error) {
	since := a.clock.Now().Add(-a.window)
	data := make([]gaugeData, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, id := range ids {
		g.Go(func() error {
			readings, err := a.readings.RecentReadings(ctx, id, since, MaxForecastReadings)
			if err != nil {
				return fmt.Errorf("fetch readings for gauge %s: %w", id, err)
			}
			data[i].readings = readings

			if a.thresholds != nil {
				th, err := a.thresholds.Thresholds(ctx, id)
				if err != nil {
					return fmt.Errorf("fetch thresholds for gauge %s: %w", id, err)
				}
				data[i].thresholds = th
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// forecastGauges forecasts every requested gauge and fills in the forecasts,
// the aggregate probability and no-data diagnostics.
func (a *Assessor) forecastGauges(ctx context.Context, req AssessmentRequest, out *Assessment) error {
	data, err := a.fetchGauges(ctx, req.GaugeIDs)
	if err != nil {
		return err
	}

	gaugeProbs := make([]float64, 0, len(req.GaugeIDs))
	for i, id := range req.GaugeIDs {
		readings, th := data[i].readings, data[i].thresholds

		fc, err := a.forecaster.Forecast(readings, out.HorizonHours, th, WithGaugeID(id))
		if errors.Is(err, ErrNoData) {
			a.logger.Warn("gauge has no eligible readings", "request_id", req.ID, "gauge_id", id)
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				Code:    DiagnosticNoData,
				Subject: id,
				Message: fmt.Sprintf("gauge %q has no eligible readings in the last %s", id, a.window),
			})
			continue
		}
		if err != nil {
			return err
		}

		out.Forecasts = append(out.Forecasts, fc)
		gaugeProbs = append(gaugeProbs, GaugeProbability(readings, th))
	}

	switch len(out.Forecasts) {
	case 0:
		return ErrNoData
	case 1:
		out.AggregateProbability = out.Forecasts[0].FloodProbability
	default:
		out.AggregateProbability = AggregateProbability(gaugeProbs)
	}
	return nil
}
