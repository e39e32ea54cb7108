package service_test

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

// views checks that all three projections agree on the session.
func (e *env) views(t *testing.T, user domain.UserSessionStatus, booking domain.BookingStatus, backstage domain.BackstageStatus) {
	t.Helper()
	users, err := e.svc.UserSessions(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	bookings, err := e.svc.GlobalBookings(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	records, err := e.svc.BackstageRecords(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].Status != user {
		t.Fatalf("user sessions %+v, want %s", users, user)
	}
	if booking == "" {
		if len(bookings) != 0 {
			t.Fatalf("bookings %+v, want none", bookings)
		}
	} else if len(bookings) != 1 || bookings[0].Status != booking {
		t.Fatalf("bookings %+v, want %s", bookings, booking)
	}
	if backstage == "" {
		if len(records) != 0 {
			t.Fatalf("backstage %+v, want none", records)
		}
	} else if len(records) != 1 || records[0].Status != backstage {
		t.Fatalf("backstage %+v, want %s", records, backstage)
	}
}

func TestSession_AllViewsFollowOneStatus(t *testing.T) {
	e := newEnv(t, 0)
	res := e.book(t, 4)
	id := res.Session.ID
	e.views(t, domain.UserSessionUpcoming, domain.BookingBooked, "")

	if _, err := e.svc.CheckIn(e.ctx, id); err != nil {
		t.Fatal(err)
	}
	e.views(t, domain.UserSessionCheckedIn, domain.BookingCheckedIn, "")
	bookings, _ := e.svc.GlobalBookings(e.ctx)
	if bookings[0].CheckInCount != 4 {
		t.Fatalf("check in count %d", bookings[0].CheckInCount)
	}

	since := e.mark()
	if _, err := e.svc.Transfer(e.ctx, id, false); err != nil {
		t.Fatal(err)
	}
	if _, events := since(); !hasEvent(events, domain.EventSessionTransferred) {
		t.Fatalf("transfer events %v", events)
	}
	e.views(t, domain.UserSessionCheckedIn, domain.BookingTransferred, domain.BackstageUpcoming)

	e.clk.Set(time.Date(2026, 10, 20, 19, 0, 0, 0, time.UTC))
	if _, err := e.svc.StartGame(e.ctx, id); err != nil {
		t.Fatal(err)
	}
	e.views(t, domain.UserSessionRunning, domain.BookingTransferred, domain.BackstageRunning)

	if _, err := e.svc.EndGame(e.ctx, id); err != nil {
		t.Fatal(err)
	}
	e.views(t, domain.UserSessionCompleted, domain.BookingTransferred, domain.BackstageCompleted)

	n, err := e.svc.ClaimPoints(e.ctx, id)
	if err != nil || n != 40 {
		t.Fatalf("claim points: %d, %v", n, err)
	}
	since = e.mark()
	claimed := counterValue(t, observability.Transitions.WithLabelValues("points", "claimed"))
	n, err = e.svc.ClaimPoints(e.ctx, id)
	if err != nil || n != 0 {
		t.Fatalf("second claim: %d, %v", n, err)
	}
	if changes, _ := since(); len(changes) != 0 {
		t.Fatalf("second claim signaled %v", changes)
	}
	if got := counterValue(t, observability.Transitions.WithLabelValues("points", "claimed")); got != claimed {
		t.Fatalf("second claim counted as a transition: %v -> %v", claimed, got)
	}
	if p := e.points(t); p.Balance != 40 || len(p.Ledger) != 1 || p.Ledger[0].Reason != domain.PointsEarnedVisit {
		t.Fatalf("points %+v", p)
	}
	users, _ := e.svc.UserSessions(e.ctx)
	if !users[0].PointsClaimed {
		t.Fatal("guest view does not show points claimed")
	}
}

func TestTransfer_NeedsConfirmationWithoutCheckIn(t *testing.T) {
	e := newEnv(t, 0)
	id := e.book(t, 2).Session.ID

	since := e.mark()
	_, err := e.svc.Transfer(e.ctx, id, false)
	if !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("expected confirmation required, got %v", err)
	}
	if changes, _ := since(); len(changes) != 0 {
		t.Fatal("rejected transfer signaled")
	}
	e.views(t, domain.UserSessionUpcoming, domain.BookingBooked, "")

	sess, err := e.svc.Transfer(e.ctx, id, true)
	if err != nil {
		t.Fatal(err)
	}
	if sess.CheckInCount != 2 {
		t.Fatalf("check in count %d", sess.CheckInCount)
	}
	e.views(t, domain.UserSessionCheckedIn, domain.BookingTransferred, domain.BackstageUpcoming)
}

func TestCheckIn_AfterSlotStart(t *testing.T) {
	e := newEnv(t, 0)
	id := e.book(t, 2).Session.ID
	e.clk.Set(time.Date(2026, 10, 20, 19, 1, 0, 0, time.UTC))

	if _, err := e.svc.CheckIn(e.ctx, id); !errors.Is(err, domain.ErrSlotStarted) {
		t.Fatalf("expected slot started, got %v", err)
	}
	e.views(t, domain.UserSessionUpcoming, domain.BookingBooked, "")
}

func TestClaimPoints_BeforeCompletion(t *testing.T) {
	e := newEnv(t, 0)
	id := e.book(t, 2).Session.ID
	if _, err := e.svc.ClaimPoints(e.ctx, id); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if p := e.points(t); p.Balance != 0 {
		t.Fatalf("points credited: %+v", p)
	}
}

func TestCancelSession(t *testing.T) {
	e := newEnv(t, 0)
	a := e.gift(t, 2)
	id := e.book(t, 2, a.ID).Session.ID

	if _, err := e.svc.CancelSession(e.ctx, id); err != nil {
		t.Fatal(err)
	}
	e.views(t, domain.UserSessionCancelled, "", "")
	if gt := e.guestTicket(t, a.ID); gt.Status != domain.GuestTicketUsed {
		t.Fatalf("cancel should not restore tickets: %+v", gt)
	}
	if _, err := e.svc.CheckIn(e.ctx, id); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("check in after cancel: %v", err)
	}
}

func TestSessionOps_NotFound(t *testing.T) {
	e := newEnv(t, 0)
	if _, err := e.svc.StartGame(e.ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
