package bus_test

import (
	"context"
	"testing"

	"github.com/robertarktes/venue-sync/internal/bus"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
)

func TestPublish_ChangeBeforeEvents(t *testing.T) {
	b := bus.New(observability.NewDiscardLogger())
	var order []string

	b.OnEvent(func(_ context.Context, e domain.Event) { order = append(order, "event:"+string(e)) })
	b.OnChange(func(_ context.Context, n domain.Notification) { order = append(order, "change") })

	b.Publish(context.Background(), domain.Notification{
		Collections: []domain.Collection{domain.CollSessions},
		Events:      []domain.Event{domain.EventNewBookingCreated, domain.EventNewUserTicket},
	})

	want := []string{"change", "event:new-booking-created", "event:new-user-ticket"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestPublish_Filters(t *testing.T) {
	b := bus.New(observability.NewDiscardLogger())
	var chats, products, transfers int

	b.OnChange(func(context.Context, domain.Notification) { chats++ }, domain.CollChatMessages)
	b.OnChange(func(context.Context, domain.Notification) { products++ }, domain.CollProducts, domain.CollMerchTickets)
	b.OnEvent(func(context.Context, domain.Event) { transfers++ }, domain.EventSessionTransferred)

	ctx := context.Background()
	b.Publish(ctx, domain.Notification{Collections: []domain.Collection{domain.CollMerchTickets}, Events: []domain.Event{domain.EventNewUserTicket}})
	b.Publish(ctx, domain.Notification{Collections: []domain.Collection{domain.CollSessions}, Events: []domain.Event{domain.EventSessionTransferred}})

	if chats != 0 || products != 1 || transfers != 1 {
		t.Fatalf("chats=%d products=%d transfers=%d", chats, products, transfers)
	}
}

func TestPublish_DropsEventsWithoutChange(t *testing.T) {
	b := bus.New(observability.NewDiscardLogger())
	calls := 0
	b.OnEvent(func(context.Context, domain.Event) { calls++ })
	b.OnChange(func(context.Context, domain.Notification) { calls++ })

	b.Publish(context.Background(), domain.Notification{Events: []domain.Event{domain.EventNewChatMessage}})
	if calls != 0 {
		t.Fatalf("events without a change were delivered")
	}
}

func TestPublish_SurvivesPanicAndUnsubscribe(t *testing.T) {
	b := bus.New(observability.NewDiscardLogger())
	delivered := 0

	b.OnChange(func(context.Context, domain.Notification) { panic("bad view") })
	stop := b.OnChange(func(context.Context, domain.Notification) { delivered++ })

	n := domain.Notification{Collections: []domain.Collection{domain.CollPoints}}
	b.Publish(context.Background(), n)
	if delivered != 1 {
		t.Fatalf("a panicking subscriber blocked delivery")
	}
	stop()
	b.Publish(context.Background(), n)
	if delivered != 1 {
		t.Fatalf("unsubscribed handler still called")
	}
}

func TestBadges(t *testing.T) {
	b := bus.New(observability.NewDiscardLogger())
	badges := bus.NewBadges(b)
	defer badges.Close()

	badges.Focus(bus.ViewGuestChat)
	ctx := context.Background()
	publish := func(e domain.Event) {
		b.Publish(ctx, domain.Notification{Collections: []domain.Collection{domain.CollChatMessages}, Events: []domain.Event{e}})
	}
	publish(domain.EventNewChatMessage)
	publish(domain.EventNewChatMessage)
	publish(domain.EventSessionTransferred)

	if n := badges.Unread(bus.ViewGuestChat); n != 0 {
		t.Fatalf("focused view got a badge: %d", n)
	}
	if n := badges.Unread(bus.ViewFrontOfHouse); n != 2 {
		t.Fatalf("front of house unread %d, want 2", n)
	}
	if n := badges.Unread(bus.ViewBackstage); n != 1 {
		t.Fatalf("backstage unread %d, want 1", n)
	}

	badges.Focus(bus.ViewFrontOfHouse)
	if n := badges.Unread(bus.ViewFrontOfHouse); n != 0 {
		t.Fatalf("focus did not clear badge: %d", n)
	}
	publish(domain.EventNewChatMessage)
	if n := badges.Unread(bus.ViewGuestChat); n != 1 {
		t.Fatalf("unfocused guest chat unread %d, want 1", n)
	}
}
