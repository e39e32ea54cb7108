package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/venue-sync/internal/adapters/memory"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/service"
)

func TestConfirmBooking_PaidTicketForUncoveredGuests(t *testing.T) {
	e := newEnv(t, 0)
	a := e.gift(t, 2)
	b := e.gift(t, 1)

	since := e.mark()
	res := e.book(t, 5, a.ID, b.ID)

	if res.Session.Status != domain.SessionBooked || res.Session.TicketCount != 2 {
		t.Fatalf("unexpected session %+v", res.Session)
	}
	if res.PaidTicket == nil {
		t.Fatal("expected a paid ticket for 2 uncovered guests")
	}
	paid := e.guestTicket(t, res.PaidTicket.ID)
	if paid.People != 2 || paid.Price != 196 || paid.Status != domain.GuestTicketUsed || !paid.HasTag(domain.TagPaid) {
		t.Fatalf("unexpected paid ticket %+v", paid)
	}
	if res.Session.TotalPrice != 196 {
		t.Fatalf("total price %v, want 196", res.Session.TotalPrice)
	}
	for _, id := range []string{a.ID, b.ID} {
		gt := e.guestTicket(t, id)
		if gt.Status != domain.GuestTicketUsed || gt.SessionID != res.Session.ID {
			t.Fatalf("selected ticket not consumed: %+v", gt)
		}
	}

	changes, events := since()
	if len(changes) != 1 {
		t.Fatalf("booking should be one commit, got %d signals", len(changes))
	}
	if !hasEvent(events, domain.EventNewBookingCreated) || !hasEvent(events, domain.EventNewUserTicket) {
		t.Fatalf("events %v", events)
	}

	bookings, err := e.svc.GlobalBookings(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	users, err := e.svc.UserSessions(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(bookings) != 1 || bookings[0].Status != domain.BookingBooked || bookings[0].Guests != 5 {
		t.Fatalf("bookings %+v", bookings)
	}
	if len(users) != 1 || users[0].Status != domain.UserSessionUpcoming || users[0].TotalPrice != 196 {
		t.Fatalf("user sessions %+v", users)
	}
}

func TestConfirmBooking_FullyCovered(t *testing.T) {
	e := newEnv(t, 0)
	a := e.gift(t, 4)

	since := e.mark()
	res := e.book(t, 3, a.ID)
	if res.PaidTicket != nil || res.Session.TotalPrice != 0 {
		t.Fatalf("no paid ticket expected, got %+v", res)
	}
	_, events := since()
	if hasEvent(events, domain.EventNewUserTicket) || !hasEvent(events, domain.EventNewBookingCreated) {
		t.Fatalf("events %v", events)
	}
}

func TestConfirmBooking_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		req     func(e *env, a, b domain.GuestTicket) service.BookingRequest
		wantErr error
	}{
		{
			name: "over selection",
			req: func(e *env, a, b domain.GuestTicket) service.BookingRequest {
				return service.BookingRequest{Date: "2026-10-20", Time: "19:00", Guests: 2, TicketIDs: []string{a.ID, b.ID}}
			},
			wantErr: domain.ErrOverSelection,
		},
		{
			name: "unknown ticket",
			req: func(e *env, a, b domain.GuestTicket) service.BookingRequest {
				return service.BookingRequest{Date: "2026-10-20", Time: "19:00", Guests: 2, TicketIDs: []string{a.ID, "missing"}}
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "slot started",
			req: func(e *env, a, b domain.GuestTicket) service.BookingRequest {
				return service.BookingRequest{Date: "2026-10-20", Time: "09:00", Guests: 2, TicketIDs: []string{a.ID}}
			},
			wantErr: domain.ErrSlotStarted,
		},
		{
			name: "no guests",
			req: func(e *env, a, b domain.GuestTicket) service.BookingRequest {
				return service.BookingRequest{Date: "2026-10-20", Time: "19:00", Guests: 0}
			},
			wantErr: domain.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, 0)
			a := e.gift(t, 2)
			b := e.gift(t, 2)

			since := e.mark()
			_, err := e.svc.ConfirmBooking(e.ctx, tt.req(e, a, b))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if changes, _ := since(); len(changes) != 0 {
				t.Fatalf("rejected booking signaled %v", changes)
			}
			for _, id := range []string{a.ID, b.ID} {
				if gt := e.guestTicket(t, id); gt.Status != domain.GuestTicketPending {
					t.Fatalf("rejected booking consumed %+v", gt)
				}
			}
			sessions, err := e.svc.Sessions(e.ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(sessions) != 0 {
				t.Fatalf("rejected booking created %+v", sessions)
			}
		})
	}
}

func TestConfirmBooking_TicketUsedOnce(t *testing.T) {
	e := newEnv(t, 0)
	a := e.gift(t, 2)
	e.book(t, 2, a.ID)

	_, err := e.svc.ConfirmBooking(e.ctx, service.BookingRequest{Date: "2026-10-20", Time: "19:00", Guests: 2, TicketIDs: []string{a.ID}})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected used ticket rejection, got %v", err)
	}
}

// interferingKV runs interfere once, right before the first commit, the way a
// second writer racing the operation would.
type interferingKV struct {
	*memory.KV
	interfere func(kv *memory.KV) error
}

func (b *interferingKV) CompareAndSwap(ctx context.Context, expect, writes map[string]string) error {
	if fn := b.interfere; fn != nil {
		b.interfere = nil
		if err := fn(b.KV); err != nil {
			return err
		}
	}
	return b.KV.CompareAndSwap(ctx, expect, writes)
}

func TestConfirmBooking_RetryRecomputesPrice(t *testing.T) {
	backend := &interferingKV{KV: memory.NewKV()}
	e := newEnvWith(t, 0, backend)
	gt := e.gift(t, 1)

	// While the booking is in flight another writer widens the ticket to
	// cover the whole party, so the retried attempt needs no paid ticket.
	backend.interfere = func(kv *memory.KV) error {
		got, err := kv.Get(e.ctx, string(domain.CollGuestTickets))
		if err != nil {
			return err
		}
		raw := got[string(domain.CollGuestTickets)]
		var tickets []domain.GuestTicket
		if err := json.Unmarshal([]byte(raw), &tickets); err != nil {
			return err
		}
		tickets[0].People = 2
		data, err := json.Marshal(tickets)
		if err != nil {
			return err
		}
		return kv.CompareAndSwap(e.ctx,
			map[string]string{string(domain.CollGuestTickets): raw},
			map[string]string{string(domain.CollGuestTickets): string(data)})
	}

	res := e.book(t, 2, gt.ID)
	if res.PaidTicket != nil {
		t.Fatalf("retry kept a paid ticket %+v", res.PaidTicket)
	}
	if res.Session.TotalPrice != 0 || res.Session.TicketCount != 1 {
		t.Fatalf("retry kept stale totals: %+v", res.Session)
	}
	sessions, err := e.svc.Sessions(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].TotalPrice != 0 {
		t.Fatalf("stored sessions %+v", sessions)
	}
}
