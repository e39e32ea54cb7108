package store

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/venue-sync/internal/domain"
)

// source is anything collections can be decoded from.
type source interface {
	raw(c domain.Collection) (string, error)
}

// Tx stages reads and writes of one operation. Values read are remembered so
// the commit can verify nobody changed them in the meantime.
type Tx struct {
	ctx     context.Context
	backend Backend
	reads   map[string]string
	writes  map[string]string
	events  []domain.Event
}

func newTx(ctx context.Context, backend Backend) *Tx {
	return &Tx{
		ctx:     ctx,
		backend: backend,
		reads:   map[string]string{},
		writes:  map[string]string{},
	}
}

func (tx *Tx) raw(c domain.Collection) (string, error) {
	key := string(c)
	if v, ok := tx.writes[key]; ok {
		return v, nil
	}
	if v, ok := tx.reads[key]; ok {
		return v, nil
	}
	got, err := tx.backend.Get(tx.ctx, key)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", key)
	}
	tx.reads[key] = got[key]
	return got[key], nil
}

func (tx *Tx) stage(c domain.Collection, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", c)
	}
	tx.writes[string(c)] = string(data)
	return nil
}

// Emit queues named domain events for the commit announcement.
func (tx *Tx) Emit(events ...domain.Event) {
	for _, e := range events {
		dup := false
		for _, have := range tx.events {
			if have == e {
				dup = true
				break
			}
		}
		if !dup {
			tx.events = append(tx.events, e)
		}
	}
}

func (tx *Tx) Products() Repo[domain.Product] {
	return Repo[domain.Product]{Reader[domain.Product]{tx, domain.CollProducts, productID}, tx}
}

func (tx *Tx) MerchTickets() Repo[domain.MerchTicket] {
	return Repo[domain.MerchTicket]{Reader[domain.MerchTicket]{tx, domain.CollMerchTickets, merchID}, tx}
}

func (tx *Tx) GuestTickets() Repo[domain.GuestTicket] {
	return Repo[domain.GuestTicket]{Reader[domain.GuestTicket]{tx, domain.CollGuestTickets, guestTicketID}, tx}
}

func (tx *Tx) Sessions() Repo[domain.Session] {
	return Repo[domain.Session]{Reader[domain.Session]{tx, domain.CollSessions, sessionID}, tx}
}

func (tx *Tx) StaffTickets() Repo[domain.StaffTicket] {
	return Repo[domain.StaffTicket]{Reader[domain.StaffTicket]{tx, domain.CollStaffTickets, staffTicketCode}, tx}
}

func (tx *Tx) ChatMessages() Repo[domain.ChatMessage] {
	return Repo[domain.ChatMessage]{Reader[domain.ChatMessage]{tx, domain.CollChatMessages, chatID}, tx}
}

func (tx *Tx) OfflineSales() Repo[domain.OfflineSale] {
	return Repo[domain.OfflineSale]{Reader[domain.OfflineSale]{tx, domain.CollOfflineSales, saleID}, tx}
}

func (tx *Tx) PointsLedger() Repo[domain.PointsEntry] {
	return Repo[domain.PointsEntry]{Reader[domain.PointsEntry]{tx, domain.CollPointsLedger, pointsEntryID}, tx}
}

func (tx *Tx) Points() (int, error) {
	return loadPoints(tx)
}

// AddPoints appends a ledger entry and moves the stored scalar by the same
// delta in the same commit. A delta that would overflow the balance or take
// it below zero is rejected before anything is staged.
func (tx *Tx) AddPoints(entry domain.PointsEntry) (int, error) {
	balance, err := tx.Points()
	if err != nil {
		return 0, err
	}
	balance, err = domain.ApplyPointsDelta(balance, entry.Delta)
	if err != nil {
		return 0, err
	}
	if err := tx.PointsLedger().Put(entry); err != nil {
		return 0, err
	}
	if err := tx.stage(domain.CollPoints, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// pending returns the writes that differ from what was read, with the
// session projections refreshed whenever sessions are written.
func (tx *Tx) pending() (map[string]string, error) {
	raw, ok := tx.writes[string(domain.CollSessions)]
	if old, read := tx.reads[string(domain.CollSessions)]; ok && !(read && old == raw) {
		sessions, err := decodeList[domain.Session](raw)
		if err != nil {
			return nil, err
		}
		users, bookings, records := domain.Project(sessions)
		projections := []struct {
			coll domain.Collection
			v    any
		}{
			{domain.CollUserSessions, users},
			{domain.CollGlobalBookings, bookings},
			{domain.CollBackstageRecords, records},
		}
		for _, p := range projections {
			// Read first so an unchanged view is not announced.
			if _, err := tx.raw(p.coll); err != nil {
				return nil, err
			}
			if err := tx.stage(p.coll, p.v); err != nil {
				return nil, err
			}
		}
	}
	out := make(map[string]string, len(tx.writes))
	for k, v := range tx.writes {
		if old, read := tx.reads[k]; read && old == v {
			continue
		}
		out[k] = v
	}
	return out, nil
}

func (tx *Tx) notification(writes map[string]string) domain.Notification {
	n := domain.Notification{Events: append([]domain.Event(nil), tx.events...)}
	for k := range writes {
		n.Collections = append(n.Collections, domain.Collection(k))
	}
	sort.Slice(n.Collections, func(i, j int) bool { return n.Collections[i] < n.Collections[j] })
	return n
}

// View is a read-only snapshot of the store.
type View struct {
	values map[string]string
}

func (v *View) raw(c domain.Collection) (string, error) {
	return v.values[string(c)], nil
}

func (v *View) Products() Reader[domain.Product] {
	return Reader[domain.Product]{v, domain.CollProducts, productID}
}

func (v *View) MerchTickets() Reader[domain.MerchTicket] {
	return Reader[domain.MerchTicket]{v, domain.CollMerchTickets, merchID}
}

func (v *View) GuestTickets() Reader[domain.GuestTicket] {
	return Reader[domain.GuestTicket]{v, domain.CollGuestTickets, guestTicketID}
}

func (v *View) Sessions() Reader[domain.Session] {
	return Reader[domain.Session]{v, domain.CollSessions, sessionID}
}

func (v *View) UserSessions() Reader[domain.UserSession] {
	return Reader[domain.UserSession]{v, domain.CollUserSessions, func(u domain.UserSession) string { return u.ID }}
}

func (v *View) GlobalBookings() Reader[domain.GlobalBooking] {
	return Reader[domain.GlobalBooking]{v, domain.CollGlobalBookings, func(b domain.GlobalBooking) string { return b.ID }}
}

func (v *View) BackstageRecords() Reader[domain.BackstageRecord] {
	return Reader[domain.BackstageRecord]{v, domain.CollBackstageRecords, func(r domain.BackstageRecord) string { return r.ID }}
}

func (v *View) StaffTickets() Reader[domain.StaffTicket] {
	return Reader[domain.StaffTicket]{v, domain.CollStaffTickets, staffTicketCode}
}

func (v *View) ChatMessages() Reader[domain.ChatMessage] {
	return Reader[domain.ChatMessage]{v, domain.CollChatMessages, chatID}
}

func (v *View) OfflineSales() Reader[domain.OfflineSale] {
	return Reader[domain.OfflineSale]{v, domain.CollOfflineSales, saleID}
}

func (v *View) PointsLedger() Reader[domain.PointsEntry] {
	return Reader[domain.PointsEntry]{v, domain.CollPointsLedger, pointsEntryID}
}

func (v *View) Points() (int, error) {
	return loadPoints(v)
}

// Raw exposes the serialized value of a collection.
func (v *View) Raw(c domain.Collection) string {
	return v.values[string(c)]
}

func loadPoints(src source) (int, error) {
	raw, err := src.raw(domain.CollPoints)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "decode %s", domain.CollPoints)
	}
	return n, nil
}

func productID(p domain.Product) string { return p.ID }

func merchID(t domain.MerchTicket) string { return t.ID }

func guestTicketID(t domain.GuestTicket) string { return t.ID }

func sessionID(s domain.Session) string { return s.ID }

func staffTicketCode(t domain.StaffTicket) string { return t.Code }

func chatID(m domain.ChatMessage) string { return m.ID }

func saleID(s domain.OfflineSale) string { return s.ID }

func pointsEntryID(e domain.PointsEntry) string { return e.ID }
