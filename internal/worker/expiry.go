// Package worker runs the periodic guest ticket expiry sweep.
package worker

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
)

type Sweeper interface {
	ExpireTickets(ctx context.Context) (int, error)
}

type ExpiryWorker struct {
	sweeper    Sweeper
	logger     observability.Logger
	maxRetries int
	backoff    time.Duration
}

func NewExpiryWorker(sweeper Sweeper, logger observability.Logger) *ExpiryWorker {
	return &ExpiryWorker{sweeper: sweeper, logger: logger, maxRetries: 3, backoff: time.Second}
}

// Run sweeps every interval until ctx is done.
func (w *ExpiryWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("failed to expire guest tickets after retries: ", err)
			}
		}
	}
}

// Sweep runs one expiry pass, retrying when the commit keeps losing races.
func (w *ExpiryWorker) Sweep(ctx context.Context) (int, error) {
	var err error
	for i := 0; i < w.maxRetries; i++ {
		var n int
		n, err = w.sweeper.ExpireTickets(ctx)
		if err == nil {
			if n > 0 {
				w.logger.WithField("expired", n).Info("expiry sweep done")
			}
			return n, nil
		}
		if !errors.Is(err, domain.ErrSerializationFailure) {
			return 0, err
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Duration(1<<i) * w.backoff):
		}
	}
	return 0, errors.Wrapf(err, "failed after %d retries", w.maxRetries)
}
