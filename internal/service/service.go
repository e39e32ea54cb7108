// Package service holds the operations the four views perform. Each
// operation reads, validates and writes every collection it touches inside
// one store transaction, so other views only ever see it fully applied.
package service

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/venue-sync/internal/clock"
	"github.com/robertarktes/venue-sync/internal/config"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
	"github.com/robertarktes/venue-sync/internal/store"
)

type Options struct {
	StoreLabel     string
	Location       *time.Location
	PointsPerGuest int
	PaidTicketRate float64
	// TicketValidity bounds how long a PENDING guest ticket stays usable.
	// Zero means tickets never expire.
	TicketValidity time.Duration
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, err
	}
	return Options{
		StoreLabel:     cfg.StoreLabel,
		Location:       loc,
		PointsPerGuest: cfg.PointsPerGuest,
		PaidTicketRate: cfg.PaidTicketRate,
		TicketValidity: cfg.TicketValidity,
	}, nil
}

type Service struct {
	store  *store.Store
	clock  clock.Clock
	opts   Options
	logger observability.Logger
}

func New(st *store.Store, clk clock.Clock, opts Options, logger observability.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{store: st, clock: clk, opts: opts, logger: logger}
}

// observe records the outcome of a transition for metrics and logs.
func (s *Service) observe(err error, entity, id, to string) {
	if err == nil {
		observability.Transitions.WithLabelValues(entity, to).Inc()
		s.logger.WithField("entity", entity).WithField("id", id).Debug("transition to ", to)
		return
	}
	reason := "error"
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		reason = "quota"
	case errors.Is(err, domain.ErrConfirmationRequired):
		reason = "confirmation_required"
	case errors.Is(err, domain.ErrInvalidTransition):
		reason = "invalid_transition"
	case errors.Is(err, domain.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		reason = "invalid_input"
	case errors.Is(err, domain.ErrConflict):
		reason = "conflict"
	}
	observability.Rejections.WithLabelValues(reason).Inc()
	s.logger.WithField("entity", entity).WithField("id", id).WithField("reason", reason).Info("rejected: ", err)
}
