package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/store"
)

// ClaimMerch creates a PENDING claim. Points are deducted in the same commit
// for POINTS claims; purchase claims only record the amount due.
func (s *Service) ClaimMerch(ctx context.Context, productID string, qty int, method domain.RedeemMethod) (domain.MerchTicket, error) {
	now := s.clock.Now()
	var out domain.MerchTicket
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		p, err := tx.Products().Get(productID)
		if err != nil {
			return err
		}
		if !p.OnShelf {
			return errors.Wrapf(domain.ErrProductOffShelf, "product %s", p.ID)
		}
		tickets, err := tx.MerchTickets().List()
		if err != nil {
			return err
		}
		t, err := domain.NewMerchTicket(p, qty, method, s.opts.StoreLabel, now)
		if err != nil {
			return err
		}
		if err := domain.CheckStock(p, tickets, qty); err != nil {
			return err
		}
		if t.Method == domain.RedeemByPoints {
			balance, err := tx.Points()
			if err != nil {
				return err
			}
			if balance < t.PointsSpent {
				return errors.Wrapf(domain.ErrInsufficientPoints, "need %d, have %d", t.PointsSpent, balance)
			}
			if _, err := tx.AddPoints(domain.PointsEntry{
				ID:        uuid.NewString(),
				Delta:     -t.PointsSpent,
				Reason:    domain.PointsSpentMerch,
				Ref:       t.ID,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		if err := tx.MerchTickets().Replace(append(tickets, t)); err != nil {
			return err
		}
		tx.Emit(domain.EventNewUserTicket)
		out = t
		return nil
	})
	s.observe(err, "merch_ticket", productID, string(domain.MerchPending))
	if err != nil {
		return domain.MerchTicket{}, err
	}
	return out, nil
}

// RedeemMerch marks the goods as handed over at the counter.
func (s *Service) RedeemMerch(ctx context.Context, id string) (domain.MerchTicket, error) {
	return s.moveMerch(ctx, id, domain.MerchRedeemed, (*domain.MerchTicket).Redeem)
}

// RefundMerch reverses a claim. Points spent are not credited back.
func (s *Service) RefundMerch(ctx context.Context, id string) (domain.MerchTicket, error) {
	return s.moveMerch(ctx, id, domain.MerchRefunded, (*domain.MerchTicket).Refund)
}

func (s *Service) moveMerch(ctx context.Context, id string, to domain.MerchStatus, fn func(*domain.MerchTicket) error) (domain.MerchTicket, error) {
	var out domain.MerchTicket
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		t, err := tx.MerchTickets().Update(id, fn)
		out = t
		return err
	})
	s.observe(err, "merch_ticket", id, string(to))
	if err != nil {
		return domain.MerchTicket{}, err
	}
	return out, nil
}

func (s *Service) ListMerchTickets(ctx context.Context) ([]domain.MerchTicket, error) {
	var out []domain.MerchTicket
	err := s.store.View(ctx, func(v *store.View) error {
		var err error
		out, err = v.MerchTickets().List()
		return err
	})
	return out, err
}
