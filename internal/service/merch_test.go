package service_test

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/venue-sync/internal/domain"
)

func (e *env) product(t *testing.T, p domain.Product) domain.Product {
	t.Helper()
	p, err := e.svc.UpsertProduct(e.ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func (e *env) available(t *testing.T, id string) *int {
	t.Helper()
	products, err := e.svc.ListProducts(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range products {
		if p.ID == id {
			return p.Available
		}
	}
	t.Fatalf("product %s not listed", id)
	return nil
}

func TestClaimMerch_StockAndPoints(t *testing.T) {
	e := newEnv(t, 0)
	p := e.product(t, domain.Product{Name: "Mug", PointPrice: 30, Price: 12, Stock: intp(3), OnShelf: true})
	if _, err := e.svc.AdjustPoints(e.ctx, 100, "welcome"); err != nil {
		t.Fatal(err)
	}

	since := e.mark()
	mt, err := e.svc.ClaimMerch(e.ctx, p.ID, 2, domain.RedeemByPoints)
	if err != nil {
		t.Fatal(err)
	}
	if mt.PointsSpent != 60 || mt.Status != domain.MerchPending {
		t.Fatalf("unexpected claim %+v", mt)
	}
	changes, events := since()
	if len(changes) != 1 || !hasEvent(events, domain.EventNewUserTicket) {
		t.Fatalf("claim should be one commit with new-user-ticket, got %v %v", changes, events)
	}
	if got := e.points(t); got.Balance != 40 {
		t.Fatalf("balance %d, want 40", got.Balance)
	}
	if n := e.available(t, p.ID); n == nil || *n != 1 {
		t.Fatalf("available %v, want 1", n)
	}

	_, err = e.svc.ClaimMerch(e.ctx, p.ID, 2, domain.RedeemByPurchase)
	if !errors.Is(err, domain.ErrInsufficientStock) || !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	bought, err := e.svc.ClaimMerch(e.ctx, p.ID, 1, domain.RedeemByPurchase)
	if err != nil {
		t.Fatal(err)
	}
	if bought.Amount != 12 || bought.PointsSpent != 0 {
		t.Fatalf("unexpected purchase %+v", bought)
	}
	if got := e.points(t); got.Balance != 40 {
		t.Fatalf("purchase changed balance to %d", got.Balance)
	}

	// Refund releases stock but does not return points.
	if _, err := e.svc.RefundMerch(e.ctx, mt.ID); err != nil {
		t.Fatal(err)
	}
	if n := e.available(t, p.ID); n == nil || *n != 2 {
		t.Fatalf("available after refund %v, want 2", n)
	}
	if got := e.points(t); got.Balance != 40 {
		t.Fatalf("refund changed balance to %d", got.Balance)
	}
}

func TestClaimMerch_InsufficientPointsWritesNothing(t *testing.T) {
	e := newEnv(t, 0)
	p := e.product(t, domain.Product{Name: "Hoodie", PointPrice: 500, OnShelf: true})
	if _, err := e.svc.AdjustPoints(e.ctx, 100, "welcome"); err != nil {
		t.Fatal(err)
	}

	since := e.mark()
	_, err := e.svc.ClaimMerch(e.ctx, p.ID, 1, domain.RedeemByPoints)
	if !errors.Is(err, domain.ErrInsufficientPoints) {
		t.Fatalf("expected insufficient points, got %v", err)
	}
	if changes, _ := since(); len(changes) != 0 {
		t.Fatal("rejected claim signaled")
	}
	tickets, err := e.svc.ListMerchTickets(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 0 {
		t.Fatalf("rejected claim created %+v", tickets)
	}
	if got := e.points(t); got.Balance != 100 || len(got.Ledger) != 1 {
		t.Fatalf("points %+v", got)
	}
}

func TestClaimMerch_OffShelfAndUnknown(t *testing.T) {
	e := newEnv(t, 0)
	p := e.product(t, domain.Product{Name: "Poster", Price: 5, OnShelf: true})
	if _, err := e.svc.SetOnShelf(e.ctx, p.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.ClaimMerch(e.ctx, p.ID, 1, domain.RedeemByPurchase); !errors.Is(err, domain.ErrProductOffShelf) {
		t.Fatalf("expected off shelf, got %v", err)
	}
	if _, err := e.svc.ClaimMerch(e.ctx, "missing", 1, domain.RedeemByPurchase); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := e.svc.ClaimMerch(e.ctx, p.ID, 0, domain.RedeemByPurchase); err == nil {
		t.Fatal("zero quantity accepted")
	}
}

func TestMerch_RefundedIsTerminal(t *testing.T) {
	e := newEnv(t, 0)
	p := e.product(t, domain.Product{Name: "Pin", Price: 2, OnShelf: true})
	mt, err := e.svc.ClaimMerch(e.ctx, p.ID, 1, domain.RedeemByPurchase)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.RedeemMerch(e.ctx, mt.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.RefundMerch(e.ctx, mt.ID); err != nil {
		t.Fatal(err)
	}

	since := e.mark()
	for _, op := range []func() (domain.MerchTicket, error){
		func() (domain.MerchTicket, error) { return e.svc.RedeemMerch(e.ctx, mt.ID) },
		func() (domain.MerchTicket, error) { return e.svc.RefundMerch(e.ctx, mt.ID) },
	} {
		if _, err := op(); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected invalid transition, got %v", err)
		}
	}
	if changes, _ := since(); len(changes) != 0 {
		t.Fatal("terminal ticket writes signaled")
	}
}

func TestUpsertProduct_Validation(t *testing.T) {
	e := newEnv(t, 0)
	for _, p := range []domain.Product{
		{Name: ""},
		{Name: "Cap", Price: -1},
		{Name: "Cap", Stock: intp(-2)},
	} {
		if _, err := e.svc.UpsertProduct(e.ctx, p); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", p, err)
		}
	}

	unlimited := e.product(t, domain.Product{Name: "Sticker", OnShelf: true})
	if n := e.available(t, unlimited.ID); n != nil {
		t.Fatalf("unlimited product reports availability %d", *n)
	}
}

func TestUpsertProduct_StockNotBelowPendingClaims(t *testing.T) {
	e := newEnv(t, 0)
	p := e.product(t, domain.Product{Name: "Mug", Price: 12, Stock: intp(5), OnShelf: true})
	if _, err := e.svc.ClaimMerch(e.ctx, p.ID, 4, domain.RedeemByPurchase); err != nil {
		t.Fatal(err)
	}

	lowered := p
	lowered.Stock = intp(1)
	if _, err := e.svc.UpsertProduct(e.ctx, lowered); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("stock below pending claims accepted: %v", err)
	}
	lowered.Stock = intp(3)
	if err := e.svc.ImportProducts(e.ctx, []domain.Product{lowered}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("import below pending claims accepted: %v", err)
	}
	if n := e.available(t, p.ID); n == nil || *n != 1 {
		t.Fatalf("available %v, want 1", n)
	}

	lowered.Stock = intp(4)
	if _, err := e.svc.UpsertProduct(e.ctx, lowered); err != nil {
		t.Fatal(err)
	}
	if n := e.available(t, p.ID); n == nil || *n != 0 {
		t.Fatalf("available %v, want 0", n)
	}
}

func TestClaimMerch_HugeQuantityRejected(t *testing.T) {
	e := newEnv(t, 0)
	if _, err := e.svc.AdjustPoints(e.ctx, 10, "welcome"); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		price int
		qty   int
	}{
		{4, 1 << 62},
		{3, 3074457345618258603},
		{2, math.MaxInt},
	} {
		p := e.product(t, domain.Product{Name: "Sticker", PointPrice: tc.price, OnShelf: true})
		if _, err := e.svc.ClaimMerch(e.ctx, p.ID, tc.qty, domain.RedeemByPoints); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("price %d qty %d: expected invalid input, got %v", tc.price, tc.qty, err)
		}
	}
	if got := e.points(t); got.Balance != 10 || len(got.Ledger) != 1 {
		t.Fatalf("points %+v", got)
	}
	tickets, err := e.svc.ListMerchTickets(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 0 {
		t.Fatalf("rejected claims created %+v", tickets)
	}
}
