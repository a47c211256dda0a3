package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/flood-decision-engine/internal/domain"
	"github.com/couchcryptid/flood-decision-engine/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// BatchExtractor reads up to batchSize raw assessment requests from the source.
// It may return the messages fetched so far together with an error.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a raw request into a finished assessment.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Assessment, error)
}

// BatchLoader publishes multiple assessments to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, assessments []domain.Assessment) error
}

// DefaultConcurrency is the number of requests from one batch assessed in
// parallel.
const DefaultConcurrency = 4

// Pipeline orchestrates the extract-assess-load loop.
//
// A request that can never be assessed (see domain.IsPermanent) is committed
// and skipped. Transient failures in any stage back off and retry the same
// work, so a reading-store or broker outage stalls the partition instead of
// dropping requests.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	ready       atomic.Bool
	batchSize   int
	concurrency int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used for backoff and batch timing.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithConcurrency sets how many requests of a batch are assessed at once.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n >= 1 {
			p.concurrency = n
		}
	}
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		batchSize:   batchSize,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once the pipeline has published an assessment.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published any assessments yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "concurrency", p.concurrency)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	extractRetry := p.newBackoff("extract")
	for ctx.Err() == nil {
		rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		// Messages fetched before a failure are not redelivered, so they are
		// handled before backing off.
		if len(rawBatch) > 0 && !p.processBatch(ctx, rawBatch) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("extract batch failed", "error", err, "fetched", len(rawBatch))
			if !extractRetry.wait(ctx) {
				break
			}
			continue
		}
		extractRetry.reset()
	}

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// processBatch assesses, publishes and commits one batch. Returns false if
// the context ended before the batch was fully handled, in which case nothing
// from it is committed.
func (p *Pipeline) processBatch(ctx context.Context, rawBatch []domain.RawEvent) bool {
	start := p.clock.Now()
	p.metrics.RequestsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))

	results, ok := p.assessBatch(ctx, rawBatch)
	if !ok {
		return false
	}

	assessments := make([]domain.Assessment, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			p.logger.Warn("request cannot be assessed, skipping",
				"error", r.err,
				"key", string(rawBatch[i].Key),
				"topic", rawBatch[i].Topic,
				"partition", rawBatch[i].Partition,
				"offset", rawBatch[i].Offset,
			)
			p.metrics.AssessmentErrors.Inc()
			continue
		}
		assessments = append(assessments, r.assessment)
	}

	if len(assessments) > 0 {
		if !p.loadWithRetry(ctx, assessments) {
			return false
		}
		p.metrics.AssessmentsProduced.Add(float64(len(assessments)))
		p.metrics.BatchProcessingDuration.Observe(p.clock.Since(start).Seconds())
		p.ready.Store(true)
	}

	for _, raw := range rawBatch {
		p.commitOffset(ctx, raw)
	}
	return true
}

type assessResult struct {
	assessment domain.Assessment
	err        error
}

// assessBatch runs the transformer over the batch with bounded parallelism.
// Results keep batch order. Only permanent errors are reported; transient
// ones are retried until they clear or ctx ends, in which case ok is false.
func (p *Pipeline) assessBatch(ctx context.Context, rawBatch []domain.RawEvent) ([]assessResult, bool) {
	results := make([]assessResult, len(rawBatch))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, raw := range rawBatch {
		g.Go(func() error {
			retry := p.newBackoff("assess")
			for {
				a, err := p.transformer.Transform(ctx, raw)
				if err == nil || domain.IsPermanent(err) {
					results[i] = assessResult{assessment: a, err: err}
					return nil
				}
				p.logger.Warn("assessment failed, retrying",
					"error", err,
					"key", string(raw.Key),
					"offset", raw.Offset,
				)
				if !retry.wait(ctx) {
					return ctx.Err()
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false
	}
	return results, true
}

func (p *Pipeline) loadWithRetry(ctx context.Context, assessments []domain.Assessment) bool {
	retry := p.newBackoff("load")
	for {
		err := p.loader.LoadBatch(ctx, assessments)
		if err == nil {
			return true
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(assessments))
		if !retry.wait(ctx) {
			return false
		}
	}
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
