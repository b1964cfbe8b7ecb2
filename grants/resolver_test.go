package grants_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tokenshop/grant-engine/grants"
	"github.com/tokenshop/grant-engine/shop"
)

// fakeResolver maps user IDs to addresses; entries with empty values
// resolve to no address, missing entries return an error.
type fakeResolver struct {
	mu       sync.Mutex
	contacts map[string]string
	calls    int
	inflight int
	peak     int
}

func (f *fakeResolver) ResolveContact(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.inflight++
	if f.inflight > f.peak {
		f.peak = f.inflight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	email, ok := f.contacts[userID]
	if !ok {
		return "", errors.New("user not found")
	}
	return email, nil
}

func TestResolveAll_DistinctUsersOnly(t *testing.T) {
	// GIVEN: five orders from two users
	// THEN: the resolver is called once per user, not once per order

	resolver := &fakeResolver{contacts: map[string]string{
		"alice": "alice@example.com",
		"bob":   "bob@example.com",
	}}

	orders := []shop.PendingOrder{
		{OrderID: "o1", UserID: "alice"},
		{OrderID: "o2", UserID: "alice"},
		{OrderID: "o3", UserID: "bob"},
		{OrderID: "o4", UserID: "alice"},
		{OrderID: "o5", UserID: "bob"},
	}

	contacts := grants.ResolveAll(context.Background(), resolver, orders, 4, nop)

	if resolver.calls != 2 {
		t.Errorf("expected 2 lookups, got %d", resolver.calls)
	}
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}
	if contacts["alice"] != "alice@example.com" || contacts["bob"] != "bob@example.com" {
		t.Errorf("unexpected contacts: %v", contacts)
	}
}

func TestResolveAll_FailuresExcludeUserOnly(t *testing.T) {
	// GIVEN: one resolvable user, one erroring, one resolving empty
	// THEN: only the resolvable user appears; nothing aborts

	resolver := &fakeResolver{contacts: map[string]string{
		"alice":   "alice@example.com",
		"noemail": "",
	}}

	orders := []shop.PendingOrder{
		{OrderID: "o1", UserID: "alice"},
		{OrderID: "o2", UserID: "ghost"},
		{OrderID: "o3", UserID: "noemail"},
	}

	contacts := grants.ResolveAll(context.Background(), resolver, orders, 2, nop)

	if len(contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d: %v", len(contacts), contacts)
	}
	if _, ok := contacts["alice"]; !ok {
		t.Error("alice should have resolved")
	}
}

func TestResolveAll_BoundedFanOut(t *testing.T) {
	// With a pool of 2, no more than 2 lookups may run at once.

	contacts := make(map[string]string)
	var orders []shop.PendingOrder
	for _, id := range []string{"u1", "u2", "u3", "u4", "u5", "u6"} {
		contacts[id] = id + "@example.com"
		orders = append(orders, shop.PendingOrder{OrderID: "o-" + id, UserID: id})
	}
	resolver := &fakeResolver{contacts: contacts}

	out := grants.ResolveAll(context.Background(), resolver, orders, 2, nop)

	if len(out) != 6 {
		t.Fatalf("expected 6 contacts, got %d", len(out))
	}
	if resolver.peak > 2 {
		t.Errorf("fan-out exceeded pool size: peak %d", resolver.peak)
	}
}

func TestResolveAll_ZeroWorkers_UsesDefault(t *testing.T) {
	resolver := &fakeResolver{contacts: map[string]string{"alice": "alice@example.com"}}
	orders := []shop.PendingOrder{{OrderID: "o1", UserID: "alice"}}

	out := grants.ResolveAll(context.Background(), resolver, orders, 0, nop)
	if len(out) != 1 {
		t.Fatalf("expected resolution to proceed with default workers, got %d contacts", len(out))
	}
}
