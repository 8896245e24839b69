package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestStorePutGet(t *testing.T) {
	s := New(true, nil)

	s.Put(KindBlock, "1", "block-one")
	v, ok := s.Get(KindBlock, "1")
	if !ok {
		t.Fatal("expected hit for stored key")
	}
	if v.(string) != "block-one" {
		t.Fatalf("got %v, want block-one", v)
	}

	if _, ok := s.Get(KindBlock, "2"); ok {
		t.Fatal("expected miss for absent key")
	}
	if _, ok := s.Get(KindTransaction, "1"); ok {
		t.Fatal("expected miss in a different kind")
	}
}

func TestStoreReplaceWholesale(t *testing.T) {
	s := New(true, nil)

	s.Put(KindAddress, "0xabc", "v1")
	s.Put(KindAddress, "0xabc", "v2")

	v, ok := s.Get(KindAddress, "0xabc")
	if !ok || v.(string) != "v2" {
		t.Fatalf("got %v (hit=%v), want v2", v, ok)
	}
	if n := s.Stats()[KindAddress]; n != 1 {
		t.Fatalf("got %d entries, want 1 after replace", n)
	}
}

func TestStoreTTLExpiry(t *testing.T) {
	s := New(true, map[Kind]Policy{
		KindAddress: {Capacity: 8, TTL: 20 * time.Millisecond},
	})

	s.Put(KindAddress, "0xabc", "balance")
	if _, ok := s.Get(KindAddress, "0xabc"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := s.Get(KindAddress, "0xabc"); ok {
		t.Fatal("expected miss after TTL")
	}
	// Expired read evicts, so the count drops.
	if n := s.Stats()[KindAddress]; n != 0 {
		t.Fatalf("got %d entries, want 0 after lazy eviction", n)
	}
}

func TestStoreLRUEviction(t *testing.T) {
	s := New(true, map[Kind]Policy{
		KindBlock: {Capacity: 3, TTL: time.Minute},
	})

	for i := 0; i < 3; i++ {
		s.Put(KindBlock, fmt.Sprintf("%d", i), i)
	}
	// Touch "0" so "1" becomes the least recently used.
	if _, ok := s.Get(KindBlock, "0"); !ok {
		t.Fatal("expected hit for key 0")
	}

	s.Put(KindBlock, "3", 3)

	if _, ok := s.Get(KindBlock, "1"); ok {
		t.Fatal("expected key 1 to be evicted")
	}
	for _, key := range []string{"0", "2", "3"} {
		if _, ok := s.Get(KindBlock, key); !ok {
			t.Fatalf("expected key %s to survive eviction", key)
		}
	}
	if n := s.Stats()[KindBlock]; n != 3 {
		t.Fatalf("got %d entries, want capacity 3", n)
	}
}

func TestStoreDisabled(t *testing.T) {
	s := New(false, nil)

	s.Put(KindBlock, "1", "block")
	if _, ok := s.Get(KindBlock, "1"); ok {
		t.Fatal("disabled store must always miss")
	}
	if n := s.Stats()[KindBlock]; n != 0 {
		t.Fatalf("disabled store stored %d entries", n)
	}
}

func TestStoreClearAll(t *testing.T) {
	s := New(true, nil)
	s.Put(KindBlock, "1", "a")
	s.Put(KindTransaction, "0xdead", "b")

	s.ClearAll()

	for kind, n := range s.Stats() {
		if n != 0 {
			t.Fatalf("kind %s still has %d entries after clear", kind, n)
		}
	}
}

func TestLookupTypeMismatch(t *testing.T) {
	s := New(true, nil)
	s.Put(KindBlock, "1", "not-an-int")

	if _, ok := Lookup[int](s, KindBlock, "1"); ok {
		t.Fatal("mismatched type must report absence")
	}
	if v, ok := Lookup[string](s, KindBlock, "1"); !ok || v != "not-an-int" {
		t.Fatalf("got %q (hit=%v), want not-an-int", v, ok)
	}
}
