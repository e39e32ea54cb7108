package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/store"
)

// moveSession applies fn to one session and commits it with the projections
// refreshed.
func (s *Service) moveSession(ctx context.Context, id string, to domain.SessionStatus, fn func(*domain.Session) error, events ...domain.Event) (domain.Session, error) {
	var out domain.Session
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		sess, err := tx.Sessions().Update(id, fn)
		if err != nil {
			return err
		}
		out = sess
		tx.Emit(events...)
		return nil
	})
	s.observe(err, "session", id, string(to))
	return out, err
}

// CheckIn is the guest self check-in before the slot starts.
func (s *Service) CheckIn(ctx context.Context, id string) (domain.Session, error) {
	now := s.clock.Now()
	return s.moveSession(ctx, id, domain.SessionCheckedIn, func(sess *domain.Session) error {
		return sess.CheckIn(now, s.opts.Location)
	})
}

// Transfer hands the booking to backstage. Staff must confirm when the guests
// never checked in themselves.
func (s *Service) Transfer(ctx context.Context, id string, confirmed bool) (domain.Session, error) {
	now := s.clock.Now()
	return s.moveSession(ctx, id, domain.SessionTransferred, func(sess *domain.Session) error {
		return sess.Transfer(confirmed, now)
	}, domain.EventSessionTransferred)
}

func (s *Service) StartGame(ctx context.Context, id string) (domain.Session, error) {
	now := s.clock.Now()
	return s.moveSession(ctx, id, domain.SessionRunning, func(sess *domain.Session) error {
		return sess.Start(now)
	})
}

func (s *Service) EndGame(ctx context.Context, id string) (domain.Session, error) {
	now := s.clock.Now()
	return s.moveSession(ctx, id, domain.SessionCompleted, func(sess *domain.Session) error {
		return sess.End(now)
	})
}

func (s *Service) CancelSession(ctx context.Context, id string) (domain.Session, error) {
	now := s.clock.Now()
	return s.moveSession(ctx, id, domain.SessionCancelled, func(sess *domain.Session) error {
		return sess.Cancel(now, s.opts.Location)
	})
}

// ClaimPoints credits the visit reward of a completed session once. A second
// claim returns 0 and writes nothing.
func (s *Service) ClaimPoints(ctx context.Context, id string) (int, error) {
	now := s.clock.Now()
	var award int
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		award = 0
		sess, err := tx.Sessions().Get(id)
		if err != nil {
			return err
		}
		n, err := sess.ClaimPoints(s.opts.PointsPerGuest)
		if err != nil || n == 0 {
			return err
		}
		if err := tx.Sessions().Put(sess); err != nil {
			return err
		}
		if _, err := tx.AddPoints(domain.PointsEntry{
			ID:        uuid.NewString(),
			Delta:     n,
			Reason:    domain.PointsEarnedVisit,
			Ref:       sess.ID,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		award = n
		return nil
	})
	if err != nil || award > 0 {
		s.observe(err, "points", id, "claimed")
	}
	if err != nil {
		return 0, err
	}
	return award, nil
}

func (s *Service) Sessions(ctx context.Context) ([]domain.Session, error) {
	var out []domain.Session
	err := s.store.View(ctx, func(v *store.View) error {
		var err error
		out, err = v.Sessions().List()
		return err
	})
	return out, err
}

// UserSessions is the guest app list.
func (s *Service) UserSessions(ctx context.Context) ([]domain.UserSession, error) {
	var out []domain.UserSession
	err := s.store.View(ctx, func(v *store.View) error {
		var err error
		out, err = v.UserSessions().List()
		return err
	})
	return out, err
}

// GlobalBookings is the front-of-house booking list.
func (s *Service) GlobalBookings(ctx context.Context) ([]domain.GlobalBooking, error) {
	var out []domain.GlobalBooking
	err := s.store.View(ctx, func(v *store.View) error {
		var err error
		out, err = v.GlobalBookings().List()
		return err
	})
	return out, err
}

func (s *Service) BackstageRecords(ctx context.Context) ([]domain.BackstageRecord, error) {
	var out []domain.BackstageRecord
	err := s.store.View(ctx, func(v *store.View) error {
		var err error
		out, err = v.BackstageRecords().List()
		return err
	})
	return out, err
}
