package uncommitted

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/gcbaptista/docretrieval/model"
)

// BoolField is the uncommitted tier of a Bool field: two document-id sets
// (spec §4.4), backed by roaring bitmaps since DocumentId is a uint32.
type BoolField struct {
	mu        sync.RWMutex
	trueDocs  *roaring.Bitmap
	falseDocs *roaring.Bitmap
}

// NewBoolField creates an empty uncommitted bool field.
func NewBoolField() *BoolField {
	return &BoolField{trueDocs: roaring.New(), falseDocs: roaring.New()}
}

// Insert records docID under the true or false set, removing it from the
// other set first so P5 (true_docs ∩ false_docs = ∅) holds even if a
// document is reindexed for this field.
func (f *BoolField) Insert(docID model.DocumentId, value bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if value {
		f.falseDocs.Remove(uint32(docID))
		f.trueDocs.Add(uint32(docID))
	} else {
		f.trueDocs.Remove(uint32(docID))
		f.falseDocs.Add(uint32(docID))
	}
}

// Filter returns the matching set for value. A field with no BoolField is
// skipped by the caller, so Filter never needs to distinguish "field
// never seen" from "field seen but empty".
func (f *BoolField) Filter(value bool) *roaring.Bitmap {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if value {
		return f.trueDocs.Clone()
	}
	return f.falseDocs.Clone()
}

// Counts returns the true/false cardinalities, for bool facets.
func (f *BoolField) Counts() (trueCount, falseCount uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.trueDocs.GetCardinality(), f.falseDocs.GetCardinality()
}

// Snapshot returns clones of the true/false sets, for committing.
func (f *BoolField) Snapshot() (trueDocs, falseDocs *roaring.Bitmap) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.trueDocs.Clone(), f.falseDocs.Clone()
}

// Take atomically extracts the snapshot and resets the field to empty.
func (f *BoolField) Take() (trueDocs, falseDocs *roaring.Bitmap) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trueDocs, falseDocs = f.trueDocs, f.falseDocs
	f.trueDocs, f.falseDocs = roaring.New(), roaring.New()
	return trueDocs, falseDocs
}
