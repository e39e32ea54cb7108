package domain

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
)

// SessionStatus is the single authoritative status of a visit. The guest,
// front-of-house and backstage views are projections of it.
type SessionStatus string

const (
	SessionBooked      SessionStatus = "BOOKED"
	SessionCheckedIn   SessionStatus = "CHECKED_IN"
	SessionTransferred SessionStatus = "TRANSFERRED"
	SessionRunning     SessionStatus = "RUNNING"
	SessionCompleted   SessionStatus = "COMPLETED"
	SessionCancelled   SessionStatus = "CANCELLED"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Session struct {
	ID            string        `json:"id"`
	DateLabel     string        `json:"date_label"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Guests        int           `json:"guests"`
	CheckInCount  int           `json:"check_in_count"`
	Store         string        `json:"store"`
	Location      string        `json:"location,omitempty"`
	CustomerName  string        `json:"customer_name"`
	QRCode        string        `json:"qr_code"`
	TotalPrice    float64       `json:"total_price"`
	TicketCount   int           `json:"ticket_count"`
	Status        SessionStatus `json:"status"`
	PointsClaimed bool          `json:"points_claimed"`
	CreatedAt     time.Time     `json:"created_at"`
	TransferredAt *time.Time    `json:"transferred_at,omitempty"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
}

// StartsAt resolves the scheduled slot start in loc.
func (s Session) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+s.Time, loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidInput, "session %s slot %q %q", s.ID, s.Date, s.Time)
	}
	return t, nil
}

// HasStarted reports whether now is at or past the scheduled slot start.
func (s Session) HasStarted(now time.Time, loc *time.Location) (bool, error) {
	start, err := s.StartsAt(loc)
	if err != nil {
		return false, err
	}
	return !now.Before(start), nil
}

func (s *Session) transition(from []SessionStatus, to SessionStatus) error {
	for _, f := range from {
		if s.Status == f {
			s.Status = to
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidTransition, "session %s: %s -> %s", s.ID, s.Status, to)
}

// CheckIn is the guest self check-in, only offered before the slot starts.
func (s *Session) CheckIn(now time.Time, loc *time.Location) error {
	if s.Status != SessionBooked {
		return errors.Wrapf(ErrInvalidTransition, "session %s: %s -> %s", s.ID, s.Status, SessionCheckedIn)
	}
	started, err := s.HasStarted(now, loc)
	if err != nil {
		return err
	}
	if started {
		return errors.Wrapf(ErrSlotStarted, "session %s", s.ID)
	}
	s.Status = SessionCheckedIn
	s.CheckInCount = s.Guests
	return nil
}

// Transfer moves the booking to the backstage pipeline. A booking that was
// never checked in needs explicit staff confirmation.
func (s *Session) Transfer(confirmed bool, now time.Time) error {
	if s.Status == SessionBooked && !confirmed {
		return errors.Wrapf(ErrConfirmationRequired, "session %s", s.ID)
	}
	if err := s.transition([]SessionStatus{SessionBooked, SessionCheckedIn}, SessionTransferred); err != nil {
		return err
	}
	s.CheckInCount = s.Guests
	s.TransferredAt = &now
	return nil
}

func (s *Session) Start(now time.Time) error {
	if err := s.transition([]SessionStatus{SessionTransferred}, SessionRunning); err != nil {
		return err
	}
	s.StartedAt = &now
	return nil
}

func (s *Session) End(now time.Time) error {
	if err := s.transition([]SessionStatus{SessionRunning}, SessionCompleted); err != nil {
		return err
	}
	s.EndedAt = &now
	return nil
}

// Cancel is only possible for a booking that has not been checked in and
// whose slot has not started. Consumed tickets stay USED.
func (s *Session) Cancel(now time.Time, loc *time.Location) error {
	if s.Status != SessionBooked {
		return errors.Wrapf(ErrInvalidTransition, "session %s: %s -> %s", s.ID, s.Status, SessionCancelled)
	}
	started, err := s.HasStarted(now, loc)
	if err != nil {
		return err
	}
	if started {
		return errors.Wrapf(ErrSlotStarted, "session %s", s.ID)
	}
	s.Status = SessionCancelled
	return nil
}

// ClaimPoints flips PointsClaimed and returns the award. A session that has
// already been claimed returns 0 and is left untouched.
func (s *Session) ClaimPoints(ratePerGuest int) (int, error) {
	if s.Status != SessionCompleted {
		return 0, errors.Wrapf(ErrInvalidTransition, "session %s: claim points while %s", s.ID, s.Status)
	}
	if s.PointsClaimed {
		return 0, nil
	}
	if ratePerGuest < 0 || (ratePerGuest > 0 && s.Guests > math.MaxInt/ratePerGuest) {
		return 0, errors.Wrapf(ErrInvalidInput, "session %s: %d guests at %d points each", s.ID, s.Guests, ratePerGuest)
	}
	s.PointsClaimed = true
	return s.Guests * ratePerGuest, nil
}
