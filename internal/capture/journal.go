// SPDX-License-Identifier: MIT

package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
)

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Journal persists session records so recorder status survives a host
// restart. Keys are "rec:<session-id>" with JSON values.
type Journal struct {
	db *badger.DB
}

// OpenJournal opens (or creates) the journal at path. An empty path selects
// an in-memory journal, used by tests and by hosts without a data dir.
func OpenJournal(path string) (*Journal, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open capture journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

func sessionKey(id string) []byte { return []byte("rec:" + id) }

// Put writes or replaces a session record.
func (j *Journal) Put(s *Session) error {
	buf, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(s.ID), buf)
	})
}

// Get loads one session record.
func (j *Journal) Get(id string) (*Session, error) {
	var out Session
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return &out, nil
}

// List returns every recorded session, newest first by start time.
func (j *Journal) List() ([]*Session, error) {
	var out []*Session
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("rec:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var s Session
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			}); err != nil {
				return err
			}
			out = append(out, &s)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.After(out[k].StartedAt) })
	return out, nil
}
