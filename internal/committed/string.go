// Package committed holds the on-disk tier for every field kind (spec
// §4.3 and §4.4): built fresh or merged forward from the previous
// generation at commit time, then read-only until the next commit
// replaces it. Grounded on
// _examples/original_source/.../committed/string.rs's StringField
// (FSTIndex + PostingIdStorage + DocumentLengthsPerDocument) and
// ordered_key.rs for the number field, translated into the teacher's
// gob+snappy file layout.
package committed

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/gcbaptista/docretrieval/internal/bm25"
	"github.com/gcbaptista/docretrieval/internal/doclength"
	"github.com/gcbaptista/docretrieval/internal/fstindex"
	"github.com/gcbaptista/docretrieval/internal/postingstore"
	"github.com/gcbaptista/docretrieval/internal/uncommitted"
	"github.com/gcbaptista/docretrieval/model"
)

const (
	dictFileName     = "dict.bin"
	postingsFileName = "postings.bin"
	lengthsFileName  = "lengths.bin"
)

// StringField is a committed Text field's on-disk index: term dictionary,
// posting-id storage, and document lengths, all opened read-only.
type StringField struct {
	dict      *fstindex.Reader
	postings  *postingstore.Store
	lengths   *doclength.Store
	phraseGap int
}

// BuildStringField writes a brand-new committed generation from a sorted
// stream of uncommitted term postings — spec §4.3's "build fresh" path,
// used when there is no previous committed generation for this field.
func BuildStringField(dir string, phraseGap int, terms []uncommitted.TermPostings, lengths map[model.DocumentId]uint32) (*StringField, error) {
	postings := postingstore.New()
	lengthStore := doclength.New()
	for docID, length := range lengths {
		lengthStore.Insert(docID, length)
	}

	termNames := make([]string, 0, len(terms))
	handles := make([]uint64, 0, len(terms))
	var postingID uint64 = 1
	for _, t := range terms {
		entries := entriesFromPositions(t.Positions)
		postings.Insert(postingID, entries)
		termNames = append(termNames, t.Term)
		handles = append(handles, postingID)
		postingID++
	}

	return writeStringField(dir, phraseGap, termNames, handles, postings, lengthStore)
}

// MergeStringField folds newTerms/newLengths (the uncommitted tier being
// committed) into prev, the previous committed generation, writing the
// result to dir as a new generation. Per spec §4.3: previous posting ids
// are kept for terms that already existed; terms new to this generation
// get fresh ids allocated past the previous maximum.
func MergeStringField(dir string, phraseGap int, prev *StringField, newTerms []uncommitted.TermPostings, newLengths map[model.DocumentId]uint32) (*StringField, error) {
	prevTermNames, prevHandles, err := prev.dict.PrefixSearch("")
	if err != nil {
		return nil, fmt.Errorf("committed: read previous terms: %w", err)
	}

	postings := postingstore.New()
	lengthStore := doclength.New()
	for id := range prevTermNames {
		entries, _ := prev.postings.Get(prevHandles[id])
		postings.Insert(prevHandles[id], entries)
	}
	for docID, length := range prev.lengths.All() {
		lengthStore.Insert(docID, length)
	}

	nextPostingID := prev.postings.MaxPostingID() + 1

	termNames := make([]string, 0, len(prevTermNames)+len(newTerms))
	handles := make([]uint64, 0, len(prevTermNames)+len(newTerms))

	i, j := 0, 0
	for i < len(prevTermNames) || j < len(newTerms) {
		switch {
		case j >= len(newTerms) || (i < len(prevTermNames) && prevTermNames[i] < newTerms[j].Term):
			termNames = append(termNames, prevTermNames[i])
			handles = append(handles, prevHandles[i])
			i++
		case i >= len(prevTermNames) || newTerms[j].Term < prevTermNames[i]:
			entries := entriesFromPositions(newTerms[j].Positions)
			postings.Insert(nextPostingID, entries)
			termNames = append(termNames, newTerms[j].Term)
			handles = append(handles, nextPostingID)
			nextPostingID++
			j++
		default: // equal: keep the committed id, append new entries
			existing, _ := postings.Get(prevHandles[i])
			merged := append(existing, entriesFromPositions(newTerms[j].Positions)...)
			postings.Insert(prevHandles[i], merged)
			termNames = append(termNames, prevTermNames[i])
			handles = append(handles, prevHandles[i])
			i++
			j++
		}
	}

	for docID, length := range newLengths {
		lengthStore.Insert(docID, length)
	}

	return writeStringField(dir, phraseGap, termNames, handles, postings, lengthStore)
}

func entriesFromPositions(positions map[model.DocumentId]model.Positions) []postingstore.Entry {
	docs := make([]model.DocumentId, 0, len(positions))
	for docID := range positions {
		docs = append(docs, docID)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i] < docs[j] })

	entries := make([]postingstore.Entry, len(docs))
	for i, docID := range docs {
		entries[i] = postingstore.Entry{DocID: docID, Positions: positions[docID]}
	}
	return entries
}

func writeStringField(dir string, phraseGap int, termNames []string, handles []uint64, postings *postingstore.Store, lengths *doclength.Store) (*StringField, error) {
	fstBytes, err := fstindex.Build(termNames, handles)
	if err != nil {
		return nil, fmt.Errorf("committed: build fst: %w", err)
	}
	if err := fstindex.Save(filepath.Join(dir, dictFileName), fstBytes); err != nil {
		return nil, err
	}
	if err := postings.Save(filepath.Join(dir, postingsFileName)); err != nil {
		return nil, err
	}
	if err := lengths.Save(filepath.Join(dir, lengthsFileName)); err != nil {
		return nil, err
	}

	return LoadStringField(dir, phraseGap)
}

// LoadStringField reopens a committed string field generation from dir.
func LoadStringField(dir string, phraseGap int) (*StringField, error) {
	dict, err := fstindex.Open(filepath.Join(dir, dictFileName))
	if err != nil {
		return nil, fmt.Errorf("committed: open dict: %w", err)
	}
	postings, err := postingstore.Load(filepath.Join(dir, postingsFileName))
	if err != nil {
		return nil, fmt.Errorf("committed: load postings: %w", err)
	}
	lengths, err := doclength.Load(filepath.Join(dir, lengthsFileName))
	if err != nil {
		return nil, fmt.Errorf("committed: load lengths: %w", err)
	}
	return &StringField{dict: dict, postings: postings, lengths: lengths, phraseGap: phraseGap}, nil
}

// Close releases the memory-mapped term dictionary.
func (f *StringField) Close() error {
	if f.dict == nil {
		return nil
	}
	return f.dict.Close()
}

// GlobalInfo returns this generation's (total_documents, total_document_length).
func (f *StringField) GlobalInfo() (totalDocuments, totalDocumentLength uint64) {
	info := f.lengths.GlobalInfo()
	return info.NumDocuments, info.TotalLength
}

// Search runs the same two-mode BM25/phrase-aware algorithm as the
// uncommitted tier (spec §4.3), resolving terms through the FST and
// reading postings from the posting-id store. A term present in the FST
// but missing from the posting store is logged and skipped (soft failure,
// spec §4.7).
func (f *StringField) Search(tokens []string, boost float32, scorer *bm25.Scorer, allow func(model.DocumentId) bool, n, avgdl float64, k1, b float64) {
	if len(tokens) == 0 {
		return
	}
	if len(tokens) == 1 {
		f.searchSingleTerm(tokens[0], boost, scorer, allow, n, avgdl, k1, b)
		return
	}
	f.searchPhrase(tokens, boost, scorer, allow, n, avgdl, k1, b)
}

func (f *StringField) resolve(token string) ([]postingstore.Entry, bool) {
	handle, ok, err := f.dict.Get(token)
	if err != nil || !ok {
		return nil, false
	}
	entries, ok := f.postings.Get(handle)
	if !ok {
		log.Printf("committed: posting list %d for term %q missing, skipped", handle, token)
		return nil, false // missing posting list: tolerated (spec §4.3)
	}
	return entries, true
}

func (f *StringField) searchSingleTerm(token string, boost float32, scorer *bm25.Scorer, allow func(model.DocumentId) bool, n, avgdl, k1, b float64) {
	entries, ok := f.resolve(token)
	if !ok {
		return
	}
	df := float64(len(entries))
	for _, e := range entries {
		if allow != nil && !allow(e.DocID) {
			continue
		}
		tf := float64(len(e.Positions))
		dl := float64(f.lengths.Length(e.DocID))
		scorer.Add(e.DocID, tf, dl, avgdl, n, df, k1, b, float64(boost))
	}
}

func (f *StringField) searchPhrase(tokens []string, boost float32, scorer *bm25.Scorer, allow func(model.DocumentId) bool, n, avgdl, k1, b float64) {
	type perDoc struct {
		union     model.Positions
		maxTermDF float64
	}
	hits := make(map[model.DocumentId]*perDoc)

	for _, token := range tokens {
		entries, ok := f.resolve(token)
		if !ok {
			continue
		}
		df := float64(len(entries))
		for _, e := range entries {
			if allow != nil && !allow(e.DocID) {
				continue
			}
			pd, ok := hits[e.DocID]
			if !ok {
				pd = &perDoc{}
				hits[e.DocID] = pd
			}
			pd.union = pd.union.Merge(e.Positions)
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
		dl := float64(f.lengths.Length(docID))
		scorer.Add(docID, tf, dl, avgdl, n, pd.maxTermDF, k1, b, effectiveBoost)
	}
}

// sequencesCount counts adjacent-position pairs whose gap is strictly less
// than gap, mirroring internal/uncommitted's identical rule so both tiers
// score phrase matches the same way.
func sequencesCount(sorted model.Positions, gap int) int {
	count := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] < gap {
			count++
		}
	}
	return count
}
