package bus

import (
	"context"
	"sync"

	"github.com/robertarktes/venue-sync/internal/domain"
)

// View is one of the role screens of the navigation shell.
type View string

const (
	ViewFrontOfHouse View = "front-of-house"
	ViewBackstage    View = "backstage"
	ViewGuestChat    View = "guest-chat"
	ViewGuestApp     View = "guest-app"
)

var badgeRoutes = map[domain.Event][]View{
	domain.EventNewChatMessage:     {ViewGuestChat, ViewFrontOfHouse},
	domain.EventNewUserTicket:      {ViewGuestApp, ViewFrontOfHouse},
	domain.EventNewBookingCreated:  {ViewFrontOfHouse},
	domain.EventSessionTransferred: {ViewBackstage},
}

// Badges counts unread named events per view. The focused view never
// accumulates a badge.
type Badges struct {
	mu      sync.Mutex
	focused View
	unread  map[View]int
	stop    func()
}

func NewBadges(b *Bus) *Badges {
	badges := &Badges{unread: map[View]int{}}
	badges.stop = b.OnEvent(badges.handle)
	return badges
}

func (b *Badges) handle(_ context.Context, e domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, v := range badgeRoutes[e] {
		if v != b.focused {
			b.unread[v]++
		}
	}
}

// Focus marks v as the view on screen and clears its badge.
func (b *Badges) Focus(v View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.focused = v
	delete(b.unread, v)
}

func (b *Badges) Unread(v View) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unread[v]
}

func (b *Badges) Counts() map[View]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[View]int, len(b.unread))
	for v, n := range b.unread {
		out[v] = n
	}
	return out
}

func (b *Badges) Close() {
	b.stop()
}
