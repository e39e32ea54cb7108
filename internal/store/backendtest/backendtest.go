// Package backendtest holds the behavior every store.Backend must share.
package backendtest

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/store"
)

// Run exercises a fresh, empty backend.
func Run(t *testing.T, b store.Backend) {
	t.Helper()
	ctx := context.Background()

	got, err := b.Get(ctx, "products", "sessions")
	if err != nil {
		t.Fatalf("get on empty backend: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no keys, got %v", got)
	}

	// Absent keys are expected as "".
	err = b.CompareAndSwap(ctx,
		map[string]string{"products": ""},
		map[string]string{"products": `[{"id":"p1"}]`, "points": "5"})
	if err != nil {
		t.Fatalf("first swap: %v", err)
	}
	got, err = b.Get(ctx, "products", "points", "sessions")
	if err != nil {
		t.Fatal(err)
	}
	if got["products"] != `[{"id":"p1"}]` || got["points"] != "5" {
		t.Fatalf("unexpected values after swap: %v", got)
	}
	if _, ok := got["sessions"]; ok {
		t.Fatalf("sessions should still be absent")
	}

	// A stale expectation writes nothing, not even the other keys.
	err = b.CompareAndSwap(ctx,
		map[string]string{"products": "", "points": "5"},
		map[string]string{"products": "[]", "points": "6"})
	if !errors.Is(err, domain.ErrSerializationFailure) {
		t.Fatalf("expected serialization failure, got %v", err)
	}
	got, err = b.Get(ctx, "products", "points")
	if err != nil {
		t.Fatal(err)
	}
	if got["products"] != `[{"id":"p1"}]` || got["points"] != "5" {
		t.Fatalf("failed swap leaked writes: %v", got)
	}

	err = b.CompareAndSwap(ctx,
		map[string]string{"products": `[{"id":"p1"}]`, "points": "5"},
		map[string]string{"points": "6"})
	if err != nil {
		t.Fatalf("second swap: %v", err)
	}
	got, err = b.Get(ctx, "points")
	if err != nil {
		t.Fatal(err)
	}
	if got["points"] != "6" {
		t.Fatalf("expected points 6, got %q", got["points"])
	}
}
