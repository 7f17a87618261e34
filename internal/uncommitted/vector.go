package uncommitted

import (
	"container/heap"
	"sync"

	"github.com/gcbaptista/docretrieval/model"
)

type vectorEntry struct {
	docID  model.DocumentId
	vector []float32
}

// VectorField is the uncommitted tier of an Embedding field: a linear list
// of (doc_id, vector) pairs, per spec §4.4.
type VectorField struct {
	mu      sync.RWMutex
	entries []vectorEntry
}

// NewVectorField creates an empty uncommitted vector field.
func NewVectorField() *VectorField {
	return &VectorField{}
}

// Insert records docID's embedding vector.
func (f *VectorField) Insert(docID model.DocumentId, vector []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, vectorEntry{docID: docID, vector: vector})
}

// Search computes cosine similarity between target and every stored vector
// that allow() accepts, keeps the top limit hits in a size-limited
// min-heap, then folds the result into out by summing per doc id — so a
// document scored across multiple embedding models for the same field
// still receives one combined contribution.
func (f *VectorField) Search(target []float32, allow func(model.DocumentId) bool, limit int, out map[model.DocumentId]float32) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	h := &scoreHeap{}
	heap.Init(h)

	for _, e := range f.entries {
		if allow != nil && !allow(e.docID) {
			continue
		}
		score := model.CosineSimilarity(target, e.vector)
		if limit <= 0 {
			out[e.docID] += score
			continue
		}
		if h.Len() < limit {
			heap.Push(h, scoredDoc{docID: e.docID, score: score})
			continue
		}
		if (*h)[0].score < score {
			heap.Pop(h)
			heap.Push(h, scoredDoc{docID: e.docID, score: score})
		}
	}

	for _, sd := range *h {
		out[sd.docID] += sd.score
	}
}

type scoredDoc struct {
	docID model.DocumentId
	score float32
}

// scoreHeap is a min-heap over score, so the smallest of the current top-K
// sits at the root and is the one dropped when a larger score arrives.
type scoreHeap []scoredDoc

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return h[i].score < h[j].score }
func (h scoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x interface{}) { *h = append(*h, x.(scoredDoc)) }
func (h *scoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Take atomically extracts the snapshot and resets the field to empty.
func (f *VectorField) Take() []VectorEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]VectorEntry, len(f.entries))
	for i, e := range f.entries {
		out[i] = VectorEntry{DocID: e.docID, Vector: e.vector}
	}
	f.entries = nil
	return out
}

// VectorEntry is the exported shape of one (docID, vector) pair.
type VectorEntry struct {
	DocID  model.DocumentId
	Vector []float32
}
