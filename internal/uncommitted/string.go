// Package uncommitted holds the in-memory, pre-commit tier for every field
// kind (spec §4.2 and §4.4): the structures the apply role writes into and
// the query role reads from before the next commit folds them into the
// committed tier. Grounded on
// _examples/original_source/.../committed/string.rs's uncommitted-side
// counterparts and the teacher's in-memory indexing style
// (internal/indexing/service.go's map-based accumulation), generalized to
// the engine's own field-kind set.
package uncommitted

import (
	"sort"
	"sync"

	"github.com/gcbaptista/docretrieval/internal/bm25"
	"github.com/gcbaptista/docretrieval/model"
)

// termEntry is one term's uncommitted posting: which documents it appears
// in, and at which positions within the field.
type termEntry struct {
	positions map[model.DocumentId]model.Positions
}

// StringField is the uncommitted tier of a Text field: spec §4.2's
// map<term, (doc_frequency, map<DocumentId, Positions>)> plus per-document
// lengths and running totals.
type StringField struct {
	mu sync.RWMutex

	terms   map[string]*termEntry
	lengths map[model.DocumentId]uint32

	totalDocumentLength uint64
	documentCount       uint64
	offset              model.Offset

	// phraseGap is the adjacency tolerance for sequences_count (spec
	// §4.2): positions with a gap strictly less than this count as
	// consecutive. Set from config.EngineSettings.PhraseGap at
	// construction (Open Question decision: engine-level, not per-query).
	phraseGap int
}

// NewStringField creates an empty uncommitted string field. phraseGap is
// the engine-wide phrase-adjacency tolerance (config.EngineSettings.PhraseGap).
func NewStringField(phraseGap int) *StringField {
	return &StringField{
		terms:     make(map[string]*termEntry),
		lengths:   make(map[model.DocumentId]uint32),
		phraseGap: phraseGap,
	}
}

// Insert records one document's tokenized field content (spec §4.2's
// insert(offset, doc_id, field_length, terms)). offset is kept as the
// maximum seen so far.
func (f *StringField) Insert(offset model.Offset, docID model.DocumentId, fieldLength uint32, terms map[string]model.Positions) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if offset > f.offset {
		f.offset = offset
	}

	if _, seen := f.lengths[docID]; !seen {
		f.documentCount++
	}
	f.lengths[docID] = fieldLength
	f.totalDocumentLength += uint64(fieldLength)

	for term, positions := range terms {
		entry, ok := f.terms[term]
		if !ok {
			entry = &termEntry{positions: make(map[model.DocumentId]model.Positions)}
			f.terms[term] = entry
		}
		entry.positions[docID] = entry.positions[docID].Merge(positions)
	}
}

// GlobalInfo returns (total_documents, total_document_length) for this
// field's uncommitted tier, as spec §4.2 requires.
func (f *StringField) GlobalInfo() (totalDocuments, totalDocumentLength uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.documentCount, f.totalDocumentLength
}

// Search runs the two-mode BM25/phrase-aware algorithm from spec §4.2/§4.5
// over the uncommitted tier. avgdl/n/df are the globally agreed values the
// query dispatcher computed by summing committed and uncommitted
// GlobalInfo — this field only ever contributes its own postings.
func (f *StringField) Search(tokens []string, boost float32, scorer *bm25.Scorer, allow func(model.DocumentId) bool, n, avgdl float64, k1, b float64) {
	if len(tokens) == 0 {
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(tokens) == 1 {
		f.searchSingleTerm(tokens[0], boost, scorer, allow, n, avgdl, k1, b)
		return
	}
	f.searchPhrase(tokens, boost, scorer, allow, n, avgdl, k1, b)
}

func (f *StringField) searchSingleTerm(token string, boost float32, scorer *bm25.Scorer, allow func(model.DocumentId) bool, n, avgdl, k1, b float64) {
	entry, ok := f.terms[token]
	if !ok {
		return
	}
	df := float64(len(entry.positions))
	for docID, positions := range entry.positions {
		if allow != nil && !allow(docID) {
			continue
		}
		tf := float64(len(positions))
		dl := float64(f.lengths[docID])
		scorer.Add(docID, tf, dl, avgdl, n, df, k1, b, float64(boost))
	}
}

func (f *StringField) searchPhrase(tokens []string, boost float32, scorer *bm25.Scorer, allow func(model.DocumentId) bool, n, avgdl, k1, b float64) {
	type perDoc struct {
		union     model.Positions
		termHits  int
		maxTermDF float64
	}
	hits := make(map[model.DocumentId]*perDoc)

	for _, token := range tokens {
		entry, ok := f.terms[token]
		if !ok {
			continue
		}
		df := float64(len(entry.positions))
		for docID, positions := range entry.positions {
			if allow != nil && !allow(docID) {
				continue
			}
			pd, ok := hits[docID]
			if !ok {
				pd = &perDoc{}
				hits[docID] = pd
			}
			pd.union = pd.union.Merge(positions)
			pd.termHits++
			if df > pd.maxTermDF {
				pd.maxTermDF = df
			}
		}
	}

	for docID, pd := range hits {
		sorted := pd.union.Sorted()
		sequences := sequencesCount(sorted, f.phraseGap)
		effectiveBoost := float64(len(sorted)) + 2*float64(sequences) + float64(boost)
		tf := float64(len(sorted))
		dl := float64(f.lengths[docID])
		scorer.Add(docID, tf, dl, avgdl, n, pd.maxTermDF, k1, b, effectiveBoost)
	}
}

// sequencesCount counts adjacent-position pairs in a sorted position list
// whose gap is strictly less than gap, per spec §4.2's phrase-boost rule.
func sequencesCount(sorted model.Positions, gap int) int {
	count := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] < gap {
			count++
		}
	}
	return count
}

// Snapshot is the data Take extracts from a StringField to feed into a
// commit: a sorted stream of (term -> doc_freq, per-doc positions), ready
// for internal/committed/string.go's merge.
type Snapshot struct {
	Terms   []TermPostings
	Lengths map[model.DocumentId]uint32
	Offset  model.Offset
}

// TermPostings is one term's postings, ready to iterate in lexicographic
// order (committed.BuildStringField / MergeStringField require sorted input).
type TermPostings struct {
	Term      string
	Positions map[model.DocumentId]model.Positions
}

// Take atomically extracts the accumulated uncommitted data and resets the
// field to empty, as spec §4.2's take() requires.
func (f *StringField) Take() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	terms := make([]TermPostings, 0, len(f.terms))
	for term, entry := range f.terms {
		terms = append(terms, TermPostings{Term: term, Positions: entry.positions})
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Term < terms[j].Term })

	snapshot := Snapshot{Terms: terms, Lengths: f.lengths, Offset: f.offset}

	f.terms = make(map[string]*termEntry)
	f.lengths = make(map[model.DocumentId]uint32)
	f.totalDocumentLength = 0
	f.documentCount = 0

	return snapshot
}
