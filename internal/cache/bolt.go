package cache

import (
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"
)

var cacheBucket = []byte("cache")

type boltEntry struct {
	Value   json.RawMessage `json:"value"`
	Expires int64           `json:"expires"`
}

// Bolt is a persistent Store backed by a bbolt file. bbolt serializes
// writers itself, so no additional locking is needed here.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the cache database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

// Close releases the underlying database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Get returns the cached value for key. Expired entries are deleted lazily.
func (b *Bolt) Get(key string) ([]byte, bool) {
	var value []byte
	expired := false

	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(cacheBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var entry boltEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			expired = true
			return nil
		}
		if entry.Expires > 0 && entry.Expires < time.Now().Unix() {
			expired = true
			return nil
		}
		value = append([]byte(nil), entry.Value...)
		return nil
	})
	if err != nil {
		return nil, false
	}

	if expired {
		_ = b.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(cacheBucket).Delete([]byte(key))
		})
		return nil, false
	}
	if value == nil {
		return nil, false
	}
	return value, true
}

// Set stores value under key. Write failures are dropped; the cache is
// best-effort by design of the callers.
func (b *Bolt) Set(key string, value []byte, ttl time.Duration) {
	entry := boltEntry{Value: value}
	if ttl > 0 {
		entry.Expires = time.Now().Add(ttl).Unix()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte(key), raw)
	})
}

// Purge removes all expired entries and reports how many were dropped.
func (b *Bolt) Purge() int {
	now := time.Now().Unix()
	dropped := 0

	_ = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(cacheBucket)
		cursor := bucket.Cursor()

		var stale [][]byte
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var entry boltEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				stale = append(stale, append([]byte(nil), k...))
				continue
			}
			if entry.Expires > 0 && entry.Expires < now {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			dropped++
		}
		return nil
	})
	return dropped
}
