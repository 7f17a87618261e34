// Package doclength is the document-length store (spec §2 component 5): a
// persisted DocumentId -> token-count map for one string field, plus the
// running totals needed for BM25's average document length. Grounded on
// _examples/original_source/.../committed/string.rs's
// DocumentLengthsPerDocument, which pairs a Map<DocumentId, u32> with a
// GlobalInfo{total_document_length, number_of_documents} the scorer reads
// directly instead of recomputing an average on every query.
package doclength

import (
	"fmt"

	"github.com/gcbaptista/docretrieval/internal/persistence"
	"github.com/gcbaptista/docretrieval/model"
)

// DefaultLength is returned for a document with no recorded length (e.g. a
// field that indexed zero tokens for it), matching the original's
// unwrap_or(1): it keeps dl/avgdl well-defined in BM25 instead of dividing
// by zero.
const DefaultLength = 1

// GlobalInfo is the aggregate BM25 needs across all documents in a field:
// total token count and document count, from which avgdl = TotalLength /
// NumDocuments.
type GlobalInfo struct {
	TotalLength  uint64
	NumDocuments uint64
}

// AvgDocLength returns TotalLength/NumDocuments, or 0 if there are no
// documents yet (callers must treat 0 as "no BM25 contribution possible").
func (g GlobalInfo) AvgDocLength() float64 {
	if g.NumDocuments == 0 {
		return 0
	}
	return float64(g.TotalLength) / float64(g.NumDocuments)
}

// Store is a committed field's document-length map.
type Store struct {
	lengths map[model.DocumentId]uint32
	global  GlobalInfo
}

// New creates an empty store.
func New() *Store {
	return &Store{lengths: make(map[model.DocumentId]uint32)}
}

// Insert records docID's length, updating the running global totals.
func (s *Store) Insert(docID model.DocumentId, length uint32) {
	if old, ok := s.lengths[docID]; ok {
		s.global.TotalLength -= uint64(old)
	} else {
		s.global.NumDocuments++
	}
	s.lengths[docID] = length
	s.global.TotalLength += uint64(length)
}

// Length returns docID's length, or DefaultLength if unknown.
func (s *Store) Length(docID model.DocumentId) uint32 {
	if l, ok := s.lengths[docID]; ok {
		return l
	}
	return DefaultLength
}

// GlobalInfo returns the current aggregate totals.
func (s *Store) GlobalInfo() GlobalInfo { return s.global }

// All returns a copy of every recorded document length, for callers
// carrying a generation's lengths forward into the next one (commit).
func (s *Store) All() map[model.DocumentId]uint32 {
	out := make(map[model.DocumentId]uint32, len(s.lengths))
	for k, v := range s.lengths {
		out[k] = v
	}
	return out
}

type persisted struct {
	Lengths map[model.DocumentId]uint32
	Global  GlobalInfo
}

// Save persists the store to path.
func (s *Store) Save(path string) error {
	p := persisted{Lengths: s.lengths, Global: s.global}
	if err := persistence.SaveSnappyGob(path, p); err != nil {
		return fmt.Errorf("doclength: save %s: %w", path, err)
	}
	return nil
}

// Load reopens a store previously written by Save.
func Load(path string) (*Store, error) {
	var p persisted
	if err := persistence.LoadSnappyGob(path, &p); err != nil {
		return nil, fmt.Errorf("doclength: load %s: %w", path, err)
	}
	if p.Lengths == nil {
		p.Lengths = make(map[model.DocumentId]uint32)
	}
	return &Store{lengths: p.Lengths, global: p.Global}, nil
}
