package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

func NewGuestTicket(name string, people int, store string, tags []string, now time.Time, validity time.Duration) (GuestTicket, error) {
	if people < 1 {
		return GuestTicket{}, errors.Wrapf(ErrInvalidInput, "people %d", people)
	}
	t := GuestTicket{
		ID:         uuid.NewString(),
		Code:       NewCode(),
		Name:       name,
		People:     people,
		AcquiredAt: now,
		Store:      store,
		Status:     GuestTicketPending,
		Tags:       append([]string(nil), tags...),
	}
	if validity > 0 {
		exp := now.Add(validity)
		t.ExpiresAt = &exp
	}
	return t, nil
}

// NewCode returns a short upper-case code suitable for vouchers and QR payloads.
func NewCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Consume marks the ticket USED by the given session. It is only called while
// confirming a booking so the two changes commit together.
func (t *GuestTicket) Consume(sessionID string) error {
	if t.Status != GuestTicketPending {
		return errors.Wrapf(ErrInvalidTransition, "guest ticket %s: %s -> %s", t.ID, t.Status, GuestTicketUsed)
	}
	t.Status = GuestTicketUsed
	t.SessionID = sessionID
	return nil
}

// Expire moves a PENDING ticket whose validity has passed to EXPIRED. It
// reports whether the ticket changed.
func (t *GuestTicket) Expire(now time.Time) bool {
	if t.Status != GuestTicketPending || t.ExpiresAt == nil || now.Before(*t.ExpiresAt) {
		return false
	}
	t.Status = GuestTicketExpired
	return true
}
