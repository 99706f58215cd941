package relay

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegisterDeregisterLifecycle(t *testing.T) {
	r := NewConnRegistry()
	a1 := NewClient("userA", nil)
	a2 := NewClient("userA", nil)

	if r.IsOnline("userA") {
		t.Fatal("userA online before register")
	}

	r.Register(a1)
	r.Register(a2)
	if !r.IsOnline("userA") {
		t.Fatal("userA offline after register")
	}
	if got := len(r.HandlesFor("userA")); got != 2 {
		t.Fatalf("HandlesFor(userA) = %d handles, want 2", got)
	}

	r.Deregister("userA", a1.ConnID)
	if !r.IsOnline("userA") {
		t.Fatal("userA went offline while a second session is live")
	}

	r.Deregister("userA", a2.ConnID)
	if r.IsOnline("userA") {
		t.Fatal("userA online after last deregister")
	}
	if got := len(r.OnlineUsers()); got != 0 {
		t.Fatalf("OnlineUsers len = %d, want 0 (key must be removed with last session)", got)
	}
}

func TestDeregisterUnknownIsNoop(t *testing.T) {
	r := NewConnRegistry()
	a := NewClient("userA", nil)
	r.Register(a)

	// Unknown user, unknown conn, and the empty pair must all be no-ops.
	r.Deregister("nobody", "c-1")
	r.Deregister("userA", "c-does-not-exist")
	r.Deregister("", "")

	if !r.IsOnline("userA") {
		t.Fatal("no-op deregisters affected an unrelated live handle")
	}
}

func TestDuplicateRegisterIsAbsorbed(t *testing.T) {
	// Set semantics: the conn_id keyed map dedupes the duplicate, so a
	// single deregister takes the user offline.
	r := NewConnRegistry()
	a := NewClient("userA", nil)

	r.Register(a)
	r.Register(a)
	if got := len(r.HandlesFor("userA")); got != 1 {
		t.Fatalf("duplicate register produced %d handles, want 1", got)
	}

	r.Deregister("userA", a.ConnID)
	if r.IsOnline("userA") {
		t.Fatal("userA still online after deregistering the deduped handle")
	}
}

func TestAnonymousSessionNeverRegistered(t *testing.T) {
	r := NewConnRegistry()
	r.Register(NewClient("", nil))
	r.Register(nil)

	if got := len(r.OnlineUsers()); got != 0 {
		t.Fatalf("OnlineUsers len = %d, want 0", got)
	}
}

func TestHandlesForSnapshotIsIsolated(t *testing.T) {
	r := NewConnRegistry()
	a := NewClient("userA", nil)
	r.Register(a)

	snap := r.HandlesFor("userA")
	r.Deregister("userA", a.ConnID)

	// The caller's snapshot survives the mutation; the handle is just stale.
	if len(snap) != 1 || snap[0].ConnID != a.ConnID {
		t.Fatal("snapshot mutated by a later deregister")
	}
	if len(r.HandlesFor("userA")) != 0 {
		t.Fatal("registry still returns handles for an offline user")
	}
}

func TestConcurrentRegisterDeregister(t *testing.T) {
	r := NewConnRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user%d", i%4)
			for j := 0; j < 100; j++ {
				c := NewClient(user, nil)
				r.Register(c)
				r.IsOnline(user)
				r.HandlesFor(user)
				r.OnlineUsers()
				r.Deregister(user, c.ConnID)
			}
		}(i)
	}
	wg.Wait()

	if got := len(r.OnlineUsers()); got != 0 {
		t.Fatalf("OnlineUsers len = %d after all sessions closed, want 0", got)
	}
}
