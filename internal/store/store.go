// Package store is the shared persisted store every view reads and writes.
// Collections are kept as JSON text under well-known keys. All writes of one
// operation are staged in a Tx and committed together; only then is the
// change announced.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const defaultMaxRetries = 3

// Backend is the raw key/value persistence.
type Backend interface {
	// Get returns the values of the keys that exist. Missing keys are absent
	// from the result.
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	// CompareAndSwap applies writes atomically if every key in expect still
	// holds the expected value ("" meaning absent). Otherwise it returns
	// domain.ErrSerializationFailure and writes nothing.
	CompareAndSwap(ctx context.Context, expect, writes map[string]string) error
}

// Notifier receives the announcement of every committed transaction.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type Store struct {
	backend    Backend
	notifier   Notifier
	logger     observability.Logger
	maxRetries int
	backoff    time.Duration

	// mu serializes transactions of this process so a multi-collection
	// commit is never observed half applied by a View.
	mu sync.Mutex
}

func New(backend Backend, notifier Notifier, logger observability.Logger) *Store {
	return &Store{
		backend:    backend,
		notifier:   notifier,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		backoff:    10 * time.Millisecond,
	}
}

// WithTx runs fn against a fresh transaction and commits its staged writes.
// If fn fails nothing is written and nothing is announced. If the commit
// loses a race with another writer fn is run again on fresh data.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	ctx, span := otel.Tracer("store").Start(ctx, "store.WithTx")
	defer span.End()
	start := time.Now()
	defer func() { observability.StoreTxDuration.Observe(time.Since(start).Seconds()) }()

	n, committed, err := s.commit(ctx, fn)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if committed && s.notifier != nil {
		span.SetAttributes(attribute.Int("store.collections", len(n.Collections)))
		s.notifier.Notify(ctx, n)
	}
	return nil
}

func (s *Store) commit(ctx context.Context, fn func(tx *Tx) error) (domain.Notification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < s.maxRetries; i++ {
		tx := newTx(ctx, s.backend)
		if err := fn(tx); err != nil {
			return domain.Notification{}, false, err
		}
		writes, err := tx.pending()
		if err != nil {
			return domain.Notification{}, false, err
		}
		// Nothing changed: no write and no signal, named events included.
		if len(writes) == 0 {
			return domain.Notification{}, false, nil
		}
		err = s.backend.CompareAndSwap(ctx, tx.reads, writes)
		if err == nil {
			return tx.notification(writes), true, nil
		}
		if !errors.Is(err, domain.ErrSerializationFailure) {
			return domain.Notification{}, false, errors.Wrap(err, "commit")
		}
		observability.StoreConflicts.Inc()
		s.logger.WithField("attempt", i+1).Warn("store commit conflict, retrying")
		select {
		case <-ctx.Done():
			return domain.Notification{}, false, ctx.Err()
		case <-time.After(time.Duration(1<<i) * s.backoff):
		}
	}
	return domain.Notification{}, false, errors.Wrapf(domain.ErrSerializationFailure, "failed after %d retries", s.maxRetries)
}

// View runs fn against a consistent read-only snapshot of every collection.
func (s *Store) View(ctx context.Context, fn func(v *View) error) error {
	s.mu.Lock()
	raw, err := s.backend.Get(ctx, allKeys()...)
	s.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "load snapshot")
	}
	return fn(&View{values: raw})
}

func allKeys() []string {
	colls := []domain.Collection{
		domain.CollProducts, domain.CollMerchTickets, domain.CollGuestTickets,
		domain.CollSessions, domain.CollUserSessions, domain.CollGlobalBookings,
		domain.CollBackstageRecords, domain.CollStaffTickets, domain.CollChatMessages,
		domain.CollOfflineSales, domain.CollPoints, domain.CollPointsLedger,
	}
	keys := make([]string, len(colls))
	for i, c := range colls {
		keys[i] = string(c)
	}
	return keys
}
