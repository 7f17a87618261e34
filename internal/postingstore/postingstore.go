// Package postingstore is the posting-id storage component (spec §2
// component 4): a persisted map from an opaque posting-list id (the handle
// an fstindex term resolves to) to the list of (document, positions) pairs
// that matched that term. Grounded on
// _examples/original_source/src/collection_manager/sides/read/collection/committed/string.rs's
// PostingIdStorage (a Map<u64, Vec<(DocumentId, Vec<usize>)>> backed by its
// own generation file), adapted to the teacher's gob+snappy persistence.
package postingstore

import (
	"fmt"

	"github.com/gcbaptista/docretrieval/internal/persistence"
	"github.com/gcbaptista/docretrieval/model"
)

// Entry is one document's positions for a posting list.
type Entry struct {
	DocID     model.DocumentId
	Positions model.Positions
}

// Store is a committed field's posting-id storage: postingID -> entries.
// Immutable once built; a new generation is built wholesale on commit.
type Store struct {
	path    string
	entries map[uint64][]Entry
}

// New creates an empty, unsaved store (used while a commit is assembling a
// new generation before it calls Save).
func New() *Store {
	return &Store{entries: make(map[uint64][]Entry)}
}

// Insert records the posting list for postingID. Commit assigns
// postingIDs as a monotonically increasing counter seeded from
// MaxPostingID of the previous generation, mirroring
// posting_id_generator in the Rust source.
func (s *Store) Insert(postingID uint64, entries []Entry) {
	s.entries[postingID] = entries
}

// Get returns the entries for postingID, or nil if absent.
func (s *Store) Get(postingID uint64) ([]Entry, bool) {
	e, ok := s.entries[postingID]
	return e, ok
}

// MaxPostingID returns the highest posting id stored, or 0 if empty —
// matching get_max_posting_id's unwrap_or(0).
func (s *Store) MaxPostingID() uint64 {
	var max uint64
	for id := range s.entries {
		if id > max {
			max = id
		}
	}
	return max
}

// Save persists the store to path as a single gob+snappy file.
func (s *Store) Save(path string) error {
	s.path = path
	if err := persistence.SaveSnappyGob(path, s.entries); err != nil {
		return fmt.Errorf("postingstore: save %s: %w", path, err)
	}
	return nil
}

// Load reopens a store previously written by Save.
func Load(path string) (*Store, error) {
	entries := make(map[uint64][]Entry)
	if err := persistence.LoadSnappyGob(path, &entries); err != nil {
		return nil, fmt.Errorf("postingstore: load %s: %w", path, err)
	}
	return &Store{path: path, entries: entries}, nil
}
