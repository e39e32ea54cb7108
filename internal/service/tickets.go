package service

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
	"github.com/robertarktes/venue-sync/internal/store"
)

// GiftTicket issues a PENDING gift ticket to the guest.
func (s *Service) GiftTicket(ctx context.Context, name string, people int) (domain.GuestTicket, error) {
	t, err := domain.NewGuestTicket(name, people, s.opts.StoreLabel, []string{domain.TagGift}, s.clock.Now(), s.opts.TicketValidity)
	if err != nil {
		return domain.GuestTicket{}, err
	}
	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.GuestTickets().Put(t); err != nil {
			return err
		}
		tx.Emit(domain.EventNewUserTicket)
		return nil
	})
	s.observe(err, "guest_ticket", t.ID, string(domain.GuestTicketPending))
	if err != nil {
		return domain.GuestTicket{}, err
	}
	return t, nil
}

// GenerateStaffTicket creates a group-buy code for a guest to redeem later.
func (s *Service) GenerateStaffTicket(ctx context.Context, name string, people int) (domain.StaffTicket, error) {
	if people < 1 {
		return domain.StaffTicket{}, errors.Wrapf(domain.ErrInvalidInput, "people %d", people)
	}
	t := domain.StaffTicket{
		Code:      domain.NewCode(),
		Name:      strings.TrimSpace(name),
		People:    people,
		Store:     s.opts.StoreLabel,
		CreatedAt: s.clock.Now(),
	}
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		return tx.StaffTickets().Put(t)
	})
	if err != nil {
		return domain.StaffTicket{}, err
	}
	return t, nil
}

// RedeemCode turns a staff group-buy code into a PENDING guest ticket. Each
// code is redeemable once.
func (s *Service) RedeemCode(ctx context.Context, code string) (domain.GuestTicket, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	now := s.clock.Now()
	var out domain.GuestTicket
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		st, err := tx.StaffTickets().Get(code)
		if err != nil {
			return err
		}
		if st.RedeemedAt != nil {
			return errors.Wrapf(domain.ErrConflict, "code %s already redeemed", code)
		}
		gt, err := domain.NewGuestTicket(st.Name, st.People, st.Store, []string{domain.TagGroupBuy}, now, s.opts.TicketValidity)
		if err != nil {
			return err
		}
		gt.Code = st.Code
		st.RedeemedAt = &now
		st.TicketID = gt.ID
		if err := tx.StaffTickets().Put(st); err != nil {
			return err
		}
		if err := tx.GuestTickets().Put(gt); err != nil {
			return err
		}
		tx.Emit(domain.EventNewUserTicket)
		out = gt
		return nil
	})
	s.observe(err, "guest_ticket", code, string(domain.GuestTicketPending))
	if err != nil {
		return domain.GuestTicket{}, err
	}
	return out, nil
}

// ExpireTickets moves every PENDING ticket past its validity to EXPIRED and
// returns how many changed.
func (s *Service) ExpireTickets(ctx context.Context) (int, error) {
	now := s.clock.Now()
	var expired int
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		expired = 0
		tickets, err := tx.GuestTickets().List()
		if err != nil {
			return err
		}
		for i := range tickets {
			if tickets[i].Expire(now) {
				expired++
			}
		}
		if expired == 0 {
			return nil
		}
		return tx.GuestTickets().Replace(tickets)
	})
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		observability.Transitions.WithLabelValues("guest_ticket", string(domain.GuestTicketExpired)).Add(float64(expired))
		s.logger.WithField("count", expired).Info("guest tickets expired")
	}
	return expired, nil
}

func (s *Service) ListGuestTickets(ctx context.Context) ([]domain.GuestTicket, error) {
	var out []domain.GuestTicket
	err := s.store.View(ctx, func(v *store.View) error {
		var err error
		out, err = v.GuestTickets().List()
		return err
	})
	return out, err
}

func (s *Service) ListStaffTickets(ctx context.Context) ([]domain.StaffTicket, error) {
	var out []domain.StaffTicket
	err := s.store.View(ctx, func(v *store.View) error {
		var err error
		out, err = v.StaffTickets().List()
		return err
	})
	return out, err
}
