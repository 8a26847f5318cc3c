// Package store provides an embedded cache of booked ledger snapshots, keyed
// by an arbitrary caller-chosen identifier (typically a hash of the source
// file contents). It lets long-running consumers such as the web UI or the
// watch command skip re-booking a file that hasn't changed.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var snapshotsBucket = []byte("snapshots")

// Store wraps an embedded key-value database holding serialized snapshots.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) a snapshot store at the given path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize snapshot bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot is the serialized form of a booked ledger's account balances,
// cheap enough to store and compare without re-parsing the source file.
type Snapshot struct {
	// SavedAt records when the snapshot was written, in RFC3339 form.
	SavedAt string `json:"saved_at"`

	// Balances maps account name to currency to the decimal string amount.
	Balances map[string]map[string]string `json:"balances"`

	// ErrorCount is the number of diagnostics the ledger carried when saved.
	ErrorCount int `json:"error_count"`
}

// Save serializes a snapshot under the given key, overwriting any existing
// entry.
func (s *Store) Save(key string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(snapshotsBucket)
		return b.Put([]byte(key), data)
	})
}

// Load retrieves a snapshot by key. The second return value is false if no
// snapshot exists for the key.
func (s *Store) Load(key string) (*Snapshot, bool, error) {
	var snap *Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(snapshotsBucket)
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}

		snap = &Snapshot{}
		return json.Unmarshal(data, snap)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return snap, snap != nil, nil
}

// Delete removes a snapshot by key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(snapshotsBucket)
		return b.Delete([]byte(key))
	})
}
