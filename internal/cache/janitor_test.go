package cache

import (
	"testing"
	"time"
)

func TestJanitorStartStop(t *testing.T) {
	j := NewJanitor(NewMemory(), time.Hour)
	if err := j.Start(); err != nil {
		t.Fatal(err)
	}
	j.Stop()
}

func TestJanitorDefaultsSubMinuteIntervals(t *testing.T) {
	// Intervals under a minute round down to zero; the janitor falls back
	// to an hourly sweep instead of a hot loop.
	j := NewJanitor(NewMemory(), time.Second)
	if err := j.Start(); err != nil {
		t.Fatal(err)
	}
	j.Stop()
}
