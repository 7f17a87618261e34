package committed

import (
	"container/heap"
	"fmt"
	"path/filepath"

	"github.com/gcbaptista/docretrieval/internal/persistence"
	"github.com/gcbaptista/docretrieval/internal/uncommitted"
	"github.com/gcbaptista/docretrieval/model"
)

const vectorsFileName = "vectors.bin"

// VectorField is a committed Embedding field's on-disk index: a persisted
// list of (doc_id, vector) pairs, per spec §4.4.
type VectorField struct {
	entries []uncommitted.VectorEntry
}

// BuildVectorField writes a brand-new committed generation.
func BuildVectorField(dir string, entries []uncommitted.VectorEntry) (*VectorField, error) {
	path := filepath.Join(dir, vectorsFileName)
	if err := persistence.SaveSnappyGob(path, entries); err != nil {
		return nil, fmt.Errorf("committed: save vector field: %w", err)
	}
	return &VectorField{entries: entries}, nil
}

// MergeVectorField appends newEntries to prev's list and writes a new
// generation — vectors are never revised in place, only added to, so this
// is a plain concatenation rather than a rebuild.
func MergeVectorField(dir string, prev *VectorField, newEntries []uncommitted.VectorEntry) (*VectorField, error) {
	merged := make([]uncommitted.VectorEntry, 0, len(prev.entries)+len(newEntries))
	merged = append(merged, prev.entries...)
	merged = append(merged, newEntries...)
	return BuildVectorField(dir, merged)
}

// LoadVectorField reopens a committed generation from dir.
func LoadVectorField(dir string) (*VectorField, error) {
	path := filepath.Join(dir, vectorsFileName)
	var entries []uncommitted.VectorEntry
	if err := persistence.LoadSnappyGob(path, &entries); err != nil {
		return nil, fmt.Errorf("committed: load vector field: %w", err)
	}
	return &VectorField{entries: entries}, nil
}

// Search computes cosine similarity between target and every stored
// vector allow() accepts, folding the top limit hits into out by summing
// per doc id (spec §4.4).
func (f *VectorField) Search(target []float32, allow func(model.DocumentId) bool, limit int, out map[model.DocumentId]float32) {
	h := &scoreHeap{}
	heap.Init(h)

	for _, e := range f.entries {
		if allow != nil && !allow(e.DocID) {
			continue
		}
		score := model.CosineSimilarity(target, e.Vector)
		if limit <= 0 {
			out[e.DocID] += score
			continue
		}
		if h.Len() < limit {
			heap.Push(h, scoredDoc{docID: e.DocID, score: score})
			continue
		}
		if (*h)[0].score < score {
			heap.Pop(h)
			heap.Push(h, scoredDoc{docID: e.DocID, score: score})
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
