package uncommitted

import (
	"sort"
	"sync"

	"github.com/gcbaptista/docretrieval/model"
)

// numberEntry is one (Number, DocumentId) pair, the uncommitted tier's unit
// of storage for spec §4.4's "ordered map keyed by (Number, DocumentId)".
type numberEntry struct {
	value model.Number
	docID model.DocumentId
}

// NumberField is the uncommitted tier of a Number field: a slice kept
// sorted by value so a range filter is a binary search to the lower bound
// followed by a scan up to the upper bound.
type NumberField struct {
	mu      sync.RWMutex
	entries []numberEntry
}

// NewNumberField creates an empty uncommitted number field.
func NewNumberField() *NumberField {
	return &NumberField{}
}

// Insert records docID's value, keeping entries sorted by value.
func (f *NumberField) Insert(docID model.DocumentId, value model.Number) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := sort.Search(len(f.entries), func(i int) bool {
		return f.entries[i].value.Compare(value) >= 0
	})
	f.entries = append(f.entries, numberEntry{})
	copy(f.entries[i+1:], f.entries[i:])
	f.entries[i] = numberEntry{value: value, docID: docID}
}

// Filter returns every document whose value lies in [min, max], per spec
// §4.4's range-scan predicate evaluation.
func (f *NumberField) Filter(min, max model.Number) []model.DocumentId {
	f.mu.RLock()
	defer f.mu.RUnlock()

	lo := sort.Search(len(f.entries), func(i int) bool {
		return f.entries[i].value.Compare(min) >= 0
	})
	var out []model.DocumentId
	for i := lo; i < len(f.entries) && f.entries[i].value.Compare(max) <= 0; i++ {
		out = append(out, f.entries[i].docID)
	}
	return out
}

// Take atomically extracts the snapshot and resets the field to empty.
func (f *NumberField) Take() []NumberEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]NumberEntry, len(f.entries))
	for i, e := range f.entries {
		out[i] = NumberEntry{Value: e.value, DocID: e.docID}
	}
	f.entries = nil
	return out
}

// NumberEntry is the exported shape of one (value, docID) pair.
type NumberEntry struct {
	Value model.Number
	DocID model.DocumentId
}
