package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/robertarktes/venue-sync/internal/adapters/memory"
	"github.com/robertarktes/venue-sync/internal/bus"
	"github.com/robertarktes/venue-sync/internal/clock"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
	"github.com/robertarktes/venue-sync/internal/outbox"
	"github.com/robertarktes/venue-sync/internal/service"
	"github.com/robertarktes/venue-sync/internal/store"
)

type env struct {
	ctx     context.Context
	svc     *service.Service
	clk     *clock.FakeClock
	changes []domain.Notification
	events  []domain.Event
}

func newEnv(t *testing.T, validity time.Duration) *env {
	t.Helper()
	return newEnvWith(t, validity, memory.NewKV())
}

func newEnvWith(t *testing.T, validity time.Duration, backend store.Backend) *env {
	t.Helper()
	logger := observability.NewDiscardLogger()
	e := &env{
		ctx: context.Background(),
		clk: clock.Fake(time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)),
	}
	b := bus.New(logger)
	b.OnChange(func(_ context.Context, n domain.Notification) { e.changes = append(e.changes, n) })
	b.OnEvent(func(_ context.Context, ev domain.Event) { e.events = append(e.events, ev) })

	st := store.New(backend, outbox.NewPublisher(b, logger), logger)
	e.svc = service.New(st, e.clk, service.Options{
		StoreLabel:     "main",
		Location:       time.UTC,
		PointsPerGuest: 10,
		PaidTicketRate: 98,
		TicketValidity: validity,
	}, logger)
	return e
}

// mark returns a func reporting the changes and events since mark was called.
func (e *env) mark() func() ([]domain.Notification, []domain.Event) {
	c, ev := len(e.changes), len(e.events)
	return func() ([]domain.Notification, []domain.Event) {
		return e.changes[c:], e.events[ev:]
	}
}

func (e *env) gift(t *testing.T, people int) domain.GuestTicket {
	t.Helper()
	gt, err := e.svc.GiftTicket(e.ctx, "Gift", people)
	if err != nil {
		t.Fatal(err)
	}
	return gt
}

func (e *env) book(t *testing.T, guests int, ids ...string) service.BookingResult {
	t.Helper()
	res, err := e.svc.ConfirmBooking(e.ctx, service.BookingRequest{
		DateLabel:    "Tue",
		Date:         "2026-10-20",
		Time:         "19:00",
		Guests:       guests,
		CustomerName: "Ada",
		TicketIDs:    ids,
	})
	if err != nil {
		t.Fatalf("confirm booking: %v", err)
	}
	return res
}

func (e *env) guestTicket(t *testing.T, id string) domain.GuestTicket {
	t.Helper()
	tickets, err := e.svc.ListGuestTickets(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, gt := range tickets {
		if gt.ID == id {
			return gt
		}
	}
	t.Fatalf("guest ticket %s not found", id)
	return domain.GuestTicket{}
}

func (e *env) points(t *testing.T) service.PointsSummary {
	t.Helper()
	p, err := e.svc.Points(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if domain.PointsBalance(p.Ledger) != p.Balance {
		t.Fatalf("balance %d disagrees with ledger %+v", p.Balance, p.Ledger)
	}
	return p
}

func hasEvent(events []domain.Event, want domain.Event) bool {
	for _, e := range events {
		if e == want {
			return true
		}
	}
	return false
}

func intp(n int) *int { return &n }
