package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("station_search", "pittsburgh", 0.25, 50)
	b := Key("station_search", "pittsburgh", 0.25, 50)
	if a == "" || a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
	if a == Key("station_search", "pittsburgh", 0.5, 50) {
		t.Fatal("different parts must produce different keys")
	}
}

func TestMemoryTTL(t *testing.T) {
	m := NewMemory()
	m.Set("fresh", []byte("a"), time.Hour)
	m.Set("stale", []byte("b"), time.Nanosecond)
	m.Set("forever", []byte("c"), 0)

	time.Sleep(5 * time.Millisecond)

	if v, ok := m.Get("fresh"); !ok || string(v) != "a" {
		t.Fatalf("fresh entry lost: %q %v", v, ok)
	}
	if _, ok := m.Get("stale"); ok {
		t.Fatal("stale entry survived its TTL")
	}
	if _, ok := m.Get("forever"); !ok {
		t.Fatal("zero-TTL entry must never expire")
	}
}

func TestMemoryPurge(t *testing.T) {
	m := NewMemory()
	m.Set("stale1", []byte("a"), time.Nanosecond)
	m.Set("stale2", []byte("b"), time.Nanosecond)
	m.Set("fresh", []byte("c"), time.Hour)

	time.Sleep(5 * time.Millisecond)

	if dropped := m.Purge(); dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
	if _, ok := m.Get("fresh"); !ok {
		t.Fatal("purge must keep live entries")
	}
}

func TestGetSetJSON(t *testing.T) {
	m := NewMemory()
	type payload struct {
		Name  string
		Count int
	}

	SetJSON(m, "k", payload{Name: "x", Count: 3}, time.Hour)

	var got payload
	if !GetJSON(m, "k", &got) || got.Name != "x" || got.Count != 3 {
		t.Fatalf("round trip failed: %+v", got)
	}

	if GetJSON(nil, "k", &got) {
		t.Fatal("nil store must miss")
	}
	SetJSON(nil, "k", got, time.Hour) // must not panic
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	b, err := OpenBolt(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	b.Set("fresh", []byte(`{"a":1}`), time.Hour)
	b.Set("stale", []byte(`{"b":2}`), time.Millisecond)

	// Expiry is tracked at unix-second granularity.
	time.Sleep(1200 * time.Millisecond)

	if v, ok := b.Get("fresh"); !ok || string(v) != `{"a":1}` {
		t.Fatalf("fresh entry lost: %q %v", v, ok)
	}
	if _, ok := b.Get("stale"); ok {
		t.Fatal("expired entry survived")
	}
	if _, ok := b.Get("missing"); ok {
		t.Fatal("unexpected hit for a missing key")
	}
}

func TestBoltPurge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	b, err := OpenBolt(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	b.Set("stale", []byte(`1`), time.Millisecond)
	b.Set("fresh", []byte(`2`), time.Hour)

	time.Sleep(1200 * time.Millisecond)

	if dropped := b.Purge(); dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
	if _, ok := b.Get("fresh"); !ok {
		t.Fatal("purge must keep live entries")
	}
}
