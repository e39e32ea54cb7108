// Package bus is the synchronous in-process notification bus. Every commit is
// announced as a change signal naming the touched collections, followed by
// any named domain events. Named events are advisory: a view that misses one
// still converges on its next reload.
package bus

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
)

type ChangeHandler func(ctx context.Context, n domain.Notification)

type EventHandler func(ctx context.Context, e domain.Event)

type changeSub struct {
	colls map[domain.Collection]struct{}
	fn    ChangeHandler
}

type eventSub struct {
	events map[domain.Event]struct{}
	fn     EventHandler
}

type Bus struct {
	mu      sync.RWMutex
	nextID  int
	changes map[int]changeSub
	events  map[int]eventSub
	logger  observability.Logger
}

func New(logger observability.Logger) *Bus {
	return &Bus{
		changes: map[int]changeSub{},
		events:  map[int]eventSub{},
		logger:  logger,
	}
}

// OnChange subscribes fn to change signals touching any of colls, or to every
// change signal when colls is empty. The returned func unsubscribes.
func (b *Bus) OnChange(fn ChangeHandler, colls ...domain.Collection) func() {
	sub := changeSub{fn: fn}
	if len(colls) > 0 {
		sub.colls = make(map[domain.Collection]struct{}, len(colls))
		for _, c := range colls {
			sub.colls[c] = struct{}{}
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.changes[id] = sub
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.changes, id)
	}
}

// OnEvent subscribes fn to the named events, or to all of them when events is
// empty.
func (b *Bus) OnEvent(fn EventHandler, events ...domain.Event) func() {
	sub := eventSub{fn: fn}
	if len(events) > 0 {
		sub.events = make(map[domain.Event]struct{}, len(events))
		for _, e := range events {
			sub.events[e] = struct{}{}
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.events[id] = sub
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.events, id)
	}
}

// Publish delivers n synchronously: first the change signal, then each named
// event. A notification that touches no collection is dropped together with
// its events.
func (b *Bus) Publish(ctx context.Context, n domain.Notification) {
	if len(n.Collections) == 0 {
		return
	}
	changes, events := b.snapshot()

	observability.Notifications.WithLabelValues("change").Inc()
	for _, sub := range changes {
		if sub.wants(n.Collections) {
			b.safely("change", func() { sub.fn(ctx, n) })
		}
	}
	for _, e := range n.Events {
		observability.Notifications.WithLabelValues(string(e)).Inc()
		for _, sub := range events {
			if sub.wants(e) {
				b.safely(string(e), func() { sub.fn(ctx, e) })
			}
		}
	}
}

// snapshot copies the subscriber lists in subscription order so handlers may
// subscribe or unsubscribe while being called.
func (b *Bus) snapshot() ([]changeSub, []eventSub) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	changeIDs := make([]int, 0, len(b.changes))
	for id := range b.changes {
		changeIDs = append(changeIDs, id)
	}
	sort.Ints(changeIDs)
	changes := make([]changeSub, len(changeIDs))
	for i, id := range changeIDs {
		changes[i] = b.changes[id]
	}
	eventIDs := make([]int, 0, len(b.events))
	for id := range b.events {
		eventIDs = append(eventIDs, id)
	}
	sort.Ints(eventIDs)
	events := make([]eventSub, len(eventIDs))
	for i, id := range eventIDs {
		events[i] = b.events[id]
	}
	return changes, events
}

func (b *Bus) safely(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithField("signal", kind).Error(fmt.Sprintf("subscriber panic: %v", r))
		}
	}()
	fn()
}

func (s changeSub) wants(colls []domain.Collection) bool {
	if s.colls == nil {
		return true
	}
	for _, c := range colls {
		if _, ok := s.colls[c]; ok {
			return true
		}
	}
	return false
}

func (s eventSub) wants(e domain.Event) bool {
	if s.events == nil {
		return true
	}
	_, ok := s.events[e]
	return ok
}
