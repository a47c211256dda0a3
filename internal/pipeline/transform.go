package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/flood-decision-engine/internal/domain"
	"github.com/couchcryptid/flood-decision-engine/internal/observability"
)

// Assessor evaluates a parsed assessment request.
type Assessor interface {
	Assess(ctx context.Context, req domain.AssessmentRequest) (domain.Assessment, error)
}

// AssessmentTransformer implements Transformer by validating the raw request
// and running it through the assessor.
type AssessmentTransformer struct {
	assessor Assessor
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates an AssessmentTransformer.
func NewTransformer(assessor Assessor, logger *slog.Logger, metrics *observability.Metrics) *AssessmentTransformer {
	return &AssessmentTransformer{
		assessor: assessor,
		logger:   logger,
		metrics:  metrics,
	}
}

func (t *AssessmentTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Assessment, error) {
	req, err := domain.ParseAssessmentRequest(raw)
	if err != nil {
		return domain.Assessment{}, err
	}

	assessment, err := t.assessor.Assess(ctx, req)
	if err != nil {
		return domain.Assessment{}, err
	}

	t.record(assessment)
	t.logger.Debug("assessment complete",
		"request_id", assessment.ID,
		"mode", assessment.Mode,
		"zones", len(assessment.Recommendations),
		"units", assessment.AllocatedUnits(),
		"aggregate_probability", assessment.AggregateProbability,
	)
	return assessment, nil
}

func (t *AssessmentTransformer) record(a domain.Assessment) {
	for _, fc := range a.Forecasts {
		t.metrics.Forecasts.WithLabelValues(string(fc.Confidence)).Inc()
	}
	for _, d := range a.Diagnostics {
		switch d.Code {
		case domain.DiagnosticNoData:
			t.metrics.NoDataGauges.Inc()
		case domain.DiagnosticUnknownZone:
			t.metrics.UnknownZones.Inc()
		}
	}
	t.metrics.Allocations.WithLabelValues(string(a.Mode)).Inc()
	t.metrics.UnitsAllocated.Observe(float64(a.AllocatedUnits()))
}
