// Package outbox hands every committed notification to the local bus and then
// to the external sinks (broker, audit log).
package outbox

import (
	"context"
	"time"

	"github.com/robertarktes/venue-sync/internal/bus"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Sink receives notifications after the local bus has delivered them. Sinks
// are best effort: a failure is logged and counted, never returned.
type Sink interface {
	Name() string
	Forward(ctx context.Context, n domain.Notification) error
}

type Publisher struct {
	bus     *bus.Bus
	sinks   []Sink
	logger  observability.Logger
	timeout time.Duration
}

func NewPublisher(b *bus.Bus, logger observability.Logger, sinks ...Sink) *Publisher {
	return &Publisher{bus: b, sinks: sinks, logger: logger, timeout: 5 * time.Second}
}

// Notify implements store.Notifier.
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) {
	p.bus.Publish(ctx, n)
	if len(p.sinks) == 0 {
		return
	}

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	var g errgroup.Group
	for _, sink := range p.sinks {
		sink := sink
		g.Go(func() error {
			if err := sink.Forward(fctx, n); err != nil {
				observability.ForwardFailures.WithLabelValues(sink.Name()).Inc()
				p.logger.WithField("sink", sink.Name()).Error("forward notification: ", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
