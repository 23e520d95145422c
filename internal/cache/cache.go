// Package cache provides the TTL key-value store backing station metadata
// lookups. The fetch core never touches it; a Store is injected into the
// metadata client and each implementation owns its own locking.
package cache

import (
	"encoding/json"
	"time"
)

// Store is the cache contract: best-effort Get, Set with a per-entry TTL.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// Key builds a deterministic cache key from heterogeneous parts by JSON
// encoding them as a tuple.
func Key(parts ...any) string {
	b, err := json.Marshal(parts)
	if err != nil {
		return ""
	}
	return string(b)
}

// GetJSON looks up key and decodes the cached payload into v.
func GetJSON(s Store, key string, v any) bool {
	if s == nil {
		return false
	}
	payload, ok := s.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(payload, v) == nil
}

// SetJSON encodes v and stores it under key. Encoding failures are dropped;
// caching is never a correctness requirement.
func SetJSON(s Store, key string, v any, ttl time.Duration) {
	if s == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.Set(key, payload, ttl)
}
