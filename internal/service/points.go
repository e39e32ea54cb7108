package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/store"
)

type PointsSummary struct {
	Balance int                  `json:"balance"`
	Ledger  []domain.PointsEntry `json:"ledger"`
}

func (s *Service) Points(ctx context.Context) (PointsSummary, error) {
	var out PointsSummary
	err := s.store.View(ctx, func(v *store.View) error {
		balance, err := v.Points()
		if err != nil {
			return err
		}
		ledger, err := v.PointsLedger().List()
		if err != nil {
			return err
		}
		out = PointsSummary{Balance: balance, Ledger: ledger}
		return nil
	})
	return out, err
}

// AdjustPoints is a staff correction of the balance. The balance never goes
// negative.
func (s *Service) AdjustPoints(ctx context.Context, delta int, ref string) (int, error) {
	if delta == 0 {
		return 0, errors.Wrap(domain.ErrInvalidInput, "zero adjustment")
	}
	now := s.clock.Now()
	var balance int
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		balance, err = tx.AddPoints(domain.PointsEntry{
			ID:        uuid.NewString(),
			Delta:     delta,
			Reason:    domain.PointsManualAdjust,
			Ref:       ref,
			CreatedAt: now,
		})
		return err
	})
	s.observe(err, "points", ref, "adjusted")
	if err != nil {
		return 0, err
	}
	return balance, nil
}
