package service

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/store"
)

type BookingRequest struct {
	DateLabel    string   `json:"date_label"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Guests       int      `json:"guests"`
	CustomerName string   `json:"customer_name"`
	Location     string   `json:"location"`
	TicketIDs    []string `json:"ticket_ids"`
}

type BookingResult struct {
	Session    domain.Session      `json:"session"`
	PaidTicket *domain.GuestTicket `json:"paid_ticket,omitempty"`
}

// ConfirmBooking consumes the selected tickets, synthesizes a paid ticket for
// the guests they do not cover, and creates the session. Either all of it is
// committed or none of it.
func (s *Service) ConfirmBooking(ctx context.Context, req BookingRequest) (BookingResult, error) {
	var res BookingResult
	now := s.clock.Now()

	session := domain.Session{
		ID:           uuid.NewString(),
		DateLabel:    req.DateLabel,
		Date:         req.Date,
		Time:         req.Time,
		Guests:       req.Guests,
		Store:        s.opts.StoreLabel,
		Location:     req.Location,
		CustomerName: strings.TrimSpace(req.CustomerName),
		QRCode:       domain.NewCode(),
		Status:       domain.SessionBooked,
		CreatedAt:    now,
	}
	if session.Location == "" {
		session.Location = s.opts.StoreLabel
	}
	if session.DateLabel == "" {
		session.DateLabel = req.Date
	}
	started, err := session.HasStarted(now, s.opts.Location)
	if err != nil {
		s.observe(err, "session", session.ID, string(domain.SessionBooked))
		return res, err
	}
	if started {
		err := errors.Wrapf(domain.ErrSlotStarted, "book %s %s", req.Date, req.Time)
		s.observe(err, "session", session.ID, string(domain.SessionBooked))
		return res, err
	}

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		res = BookingResult{}
		session.TotalPrice = 0
		session.TicketCount = 0
		tickets, err := tx.GuestTickets().List()
		if err != nil {
			return err
		}
		index := make(map[string]int, len(tickets))
		for i, t := range tickets {
			index[t.ID] = i
		}

		selected := make([]domain.GuestTicket, 0, len(req.TicketIDs))
		for _, id := range req.TicketIDs {
			i, ok := index[id]
			if !ok {
				return errors.Wrapf(domain.ErrNotFound, "guest ticket %s", id)
			}
			selected = append(selected, tickets[i])
		}
		covered, err := domain.Coverage(selected, req.Guests)
		if err != nil {
			return err
		}

		for _, id := range req.TicketIDs {
			if err := tickets[index[id]].Consume(session.ID); err != nil {
				return err
			}
		}

		extra := req.Guests - covered
		if extra > 0 {
			paid, err := domain.NewGuestTicket("Paid admission", extra, s.opts.StoreLabel, []string{domain.TagPaid}, now, 0)
			if err != nil {
				return err
			}
			paid.Price = float64(extra) * s.opts.PaidTicketRate
			if err := paid.Consume(session.ID); err != nil {
				return err
			}
			tickets = append(tickets, paid)
			res.PaidTicket = &paid
			session.TotalPrice = paid.Price
		}
		if err := tx.GuestTickets().Replace(tickets); err != nil {
			return err
		}

		session.TicketCount = len(selected)
		if err := tx.Sessions().Put(session); err != nil {
			return err
		}
		res.Session = session

		tx.Emit(domain.EventNewBookingCreated)
		if res.PaidTicket != nil {
			tx.Emit(domain.EventNewUserTicket)
		}
		return nil
	})
	s.observe(err, "session", session.ID, string(domain.SessionBooked))
	if err != nil {
		return BookingResult{}, err
	}
	return res, nil
}
