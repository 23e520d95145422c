package common

import (
	"strings"
	"testing"
)

func TestHasAny(t *testing.T) {
	if !HasAny("application/json; charset=utf-8", "application/json") {
		t.Fatal("expected match")
	}
	if HasAny("text/html", "application/json", "text/csv") {
		t.Fatal("unexpected match")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 160); got != "short" {
		t.Fatalf("got %q", got)
	}

	long := strings.Repeat("a", 200)
	got := Truncate(long, 160)
	if len([]rune(got)) != 160 || !strings.HasSuffix(got, "…") {
		t.Fatalf("got %d runes, %q...", len([]rune(got)), got[:10])
	}

	// Trailing whitespace before the cut is trimmed, not replaced by the
	// ellipsis mid-word padding.
	got = Truncate(strings.Repeat("a", 8)+" \t"+strings.Repeat("b", 10), 10)
	if got != strings.Repeat("a", 8)+"…" {
		t.Fatalf("got %q", got)
	}

	if got := Truncate("unchanged", 0); got != "unchanged" {
		t.Fatalf("limit 0 must disable truncation, got %q", got)
	}
}
