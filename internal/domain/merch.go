package domain

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// NewMerchTicket builds a PENDING claim. Stock and points checks are the
// caller's job because they need the other collections.
func NewMerchTicket(p Product, qty int, method RedeemMethod, store string, now time.Time) (MerchTicket, error) {
	if qty < 1 {
		return MerchTicket{}, errors.Wrapf(ErrInvalidInput, "quantity %d", qty)
	}
	if !method.Valid() {
		return MerchTicket{}, errors.Wrapf(ErrInvalidInput, "redeem method %q", method)
	}
	t := MerchTicket{
		ID:          uuid.NewString(),
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		Method:      method,
		Status:      MerchPending,
		CreatedAt:   now,
		Store:       store,
	}
	switch method {
	case RedeemByPoints:
		if p.PointPrice > 0 && qty > math.MaxInt/p.PointPrice {
			return MerchTicket{}, errors.Wrapf(ErrInvalidInput, "quantity %d of %s costs too many points", qty, p.ID)
		}
		t.PointsSpent = p.PointPrice * qty
	case RedeemByPurchase:
		t.Amount = p.Price * float64(qty)
		if math.IsInf(t.Amount, 0) || math.IsNaN(t.Amount) {
			return MerchTicket{}, errors.Wrapf(ErrInvalidInput, "quantity %d of %s has no finite price", qty, p.ID)
		}
	}
	return t, nil
}

func (t MerchTicket) IsTerminal() bool {
	return t.Status == MerchRefunded
}

// Redeem marks the claim as handed over.
func (t *MerchTicket) Redeem() error {
	if t.Status != MerchPending {
		return errors.Wrapf(ErrInvalidTransition, "merch ticket %s: %s -> %s", t.ID, t.Status, MerchRedeemed)
	}
	t.Status = MerchRedeemed
	return nil
}

// Refund reverses a claim from PENDING or REDEEMED. REFUNDED is terminal.
func (t *MerchTicket) Refund() error {
	if t.Status != MerchPending && t.Status != MerchRedeemed {
		return errors.Wrapf(ErrInvalidTransition, "merch ticket %s: %s -> %s", t.ID, t.Status, MerchRefunded)
	}
	t.Status = MerchRefunded
	return nil
}
