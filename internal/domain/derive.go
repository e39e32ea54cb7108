package domain

import (
	"math"

	"github.com/cockroachdb/errors"
)

// AvailableStock is the product's stock counter minus the quantity held by
// PENDING merch tickets. ok is false when the product has no stock counter.
func AvailableStock(p Product, tickets []MerchTicket) (available int, ok bool) {
	if p.Stock == nil {
		return 0, false
	}
	return *p.Stock - HeldQuantity(p.ID, tickets), true
}

// HeldQuantity is the quantity of productID reserved by PENDING merch tickets.
func HeldQuantity(productID string, tickets []MerchTicket) int {
	held := 0
	for _, t := range tickets {
		if t.ProductID == productID && t.Status == MerchPending {
			held += t.Quantity
		}
	}
	return held
}

// CheckRestock rejects a stock counter below what PENDING claims already hold.
func CheckRestock(p Product, tickets []MerchTicket) error {
	if p.Stock == nil {
		return nil
	}
	if held := HeldQuantity(p.ID, tickets); *p.Stock < held {
		return errors.Wrapf(ErrInvalidInput, "product %s: stock %d is below the %d held by pending claims", p.ID, *p.Stock, held)
	}
	return nil
}

// CheckStock rejects qty when it exceeds the available stock of p.
func CheckStock(p Product, tickets []MerchTicket, qty int) error {
	available, ok := AvailableStock(p, tickets)
	if !ok {
		return nil
	}
	if qty > available {
		return errors.Wrapf(ErrInsufficientStock, "product %s: requested %d, available %d", p.ID, qty, available)
	}
	return nil
}

// ApplyPointsDelta returns balance+delta. The result may neither overflow nor
// drop below zero.
func ApplyPointsDelta(balance, delta int) (int, error) {
	if delta > 0 && balance > math.MaxInt-delta {
		return 0, errors.Wrapf(ErrInvalidInput, "points delta %d overflows balance %d", delta, balance)
	}
	if delta < 0 && balance < math.MinInt-delta {
		return 0, errors.Wrapf(ErrInsufficientPoints, "points delta %d, have %d", delta, balance)
	}
	if balance+delta < 0 {
		return 0, errors.Wrapf(ErrInsufficientPoints, "points delta %d, have %d", delta, balance)
	}
	return balance + delta, nil
}

func PointsBalance(ledger []PointsEntry) int {
	total := 0
	for _, e := range ledger {
		total += e.Delta
	}
	return total
}

// Coverage sums the people covered by selected tickets, capped at guests. A
// ticket selected after coverage already reached guests is over-selection.
// Every selected ticket must be PENDING and appear once.
func Coverage(selected []GuestTicket, guests int) (int, error) {
	if guests < 1 {
		return 0, errors.Wrapf(ErrInvalidInput, "guests %d", guests)
	}
	seen := make(map[string]struct{}, len(selected))
	covered := 0
	for _, t := range selected {
		if _, dup := seen[t.ID]; dup {
			return 0, errors.Wrapf(ErrInvalidInput, "ticket %s selected twice", t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Status != GuestTicketPending {
			return 0, errors.Wrapf(ErrInvalidTransition, "ticket %s is %s", t.ID, t.Status)
		}
		if covered >= guests {
			return 0, errors.Wrapf(ErrOverSelection, "ticket %s adds no coverage for %d guests", t.ID, guests)
		}
		covered += t.People
		if covered > guests {
			covered = guests
		}
	}
	return covered, nil
}
