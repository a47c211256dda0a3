package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	initialBackoff  = 200 * time.Millisecond
	maxRetryBackoff = 5 * time.Second
)

// backoff is an exponential delay for one retrying stage: 200ms doubling to a
// 5s cap. It is not safe for concurrent use.
type backoff struct {
	clock   clockwork.Clock
	delay   time.Duration
	retries prometheus.Counter
}

func (p *Pipeline) newBackoff(stage string) *backoff {
	return &backoff{
		clock:   p.clock,
		delay:   initialBackoff,
		retries: p.metrics.Retries.WithLabelValues(stage),
	}
}

func (b *backoff) reset() {
	b.delay = initialBackoff
}

// wait sleeps for the current delay and doubles it. Returns false if ctx ends
// first.
func (b *backoff) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	b.retries.Inc()

	select {
	case <-ctx.Done():
		return false
	case <-b.clock.After(b.delay):
	}
	b.delay = retry.NextBackoff(b.delay, maxRetryBackoff)
	return true
}
