// Package bm25 implements the scorer shared by the uncommitted and
// committed string field indexes (spec §4.3, §4.5). It has no knowledge of
// terms or postings: callers compute per-hit (tf, dl, avgdl, N, df) and
// call Add once per (term, document) match; Scorer accumulates.
package bm25

import (
	"math"
	"sync"

	"github.com/gcbaptista/docretrieval/model"
)

// Scorer accumulates BM25 contributions across fields and tokens for a
// single query, keyed by document id. Safe for concurrent use: the query
// dispatch pipeline (spec §4.7) may feed it from committed and uncommitted
// searches running concurrently.
type Scorer struct {
	mu     sync.Mutex
	scores map[model.DocumentId]float32
}

// New creates an empty Scorer.
func New() *Scorer {
	return &Scorer{scores: make(map[model.DocumentId]float32)}
}

// Add applies the BM25 formula from spec §4.3 for one term hit in one
// document and adds the result to that document's running score:
//
//	idf  = ln(1 + (N - df + 0.5) / (df + 0.5))
//	tf_n = tf * (k1 + 1) / (tf + k1 * (1 - b + b * dl / avgdl))
//	score += boost * idf * tf_n
func (s *Scorer) Add(docID model.DocumentId, tf, dl, avgdl, n, df, k1, b, boost float64) {
	if n <= 0 || df <= 0 || avgdl <= 0 {
		return
	}

	idf := math.Log(1 + (n-df+0.5)/(df+0.5))
	tfNorm := tf * (k1 + 1) / (tf + k1*(1-b+b*dl/avgdl))
	delta := float32(boost * idf * tfNorm)

	s.mu.Lock()
	s.scores[docID] += delta
	s.mu.Unlock()
}

// Scores returns a copy of the accumulated doc-id -> score map.
func (s *Scorer) Scores() map[model.DocumentId]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[model.DocumentId]float32, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out
}
