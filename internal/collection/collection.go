// Package collection implements the Collection Index (spec §4.6/§4.7):
// the per-collection home for field metadata, the uncommitted/committed
// tiers of every field, and the apply/search/commit operations that drive
// them. Grounded on the teacher's internal/engine/engine.go for the
// overall "one struct holds everything a collection needs, guarded by a
// handful of purpose-specific locks" shape, generalized from the
// teacher's document-store-backed engine to this engine's write-log +
// two-tier field index design.
package collection

import (
	"container/heap"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/gcbaptista/docretrieval/config"
	"github.com/gcbaptista/docretrieval/embedding"
	"github.com/gcbaptista/docretrieval/internal/apperrors"
	"github.com/gcbaptista/docretrieval/internal/bm25"
	"github.com/gcbaptista/docretrieval/internal/committed"
	"github.com/gcbaptista/docretrieval/internal/doclength"
	"github.com/gcbaptista/docretrieval/internal/fusion"
	"github.com/gcbaptista/docretrieval/internal/uncommitted"
	"github.com/gcbaptista/docretrieval/model"
	"github.com/gcbaptista/docretrieval/tokenizer"
)

// Collection is one collection's full index state: metadata, both tiers of
// every field, and the locks that let the apply role and the query/commit
// role work concurrently (spec §5).
type Collection struct {
	id       model.CollectionId
	dataDir  string
	settings config.EngineSettings
	embedder embedding.Embedder
	tokens   *tokenizer.Cache

	// fieldsMu guards the metadata maps, mutated only by ApplyCreateField.
	fieldsMu     sync.RWMutex
	fields       map[model.FieldId]model.FieldMeta
	fieldsByName map[string]model.FieldId
	modelFields  map[string][]model.FieldId

	// uncommittedMu guards the existence of per-field uncommitted
	// structures (insertion of a new field); the structures themselves
	// hold their own internal locks for concurrent apply/search.
	uncommittedMu sync.RWMutex
	uString       map[model.FieldId]*uncommitted.StringField
	uNumber       map[model.FieldId]*uncommitted.NumberField
	uBool         map[model.FieldId]*uncommitted.BoolField
	uVector       map[model.FieldId]*uncommitted.VectorField

	// committedMu guards the committed maps; held briefly during a
	// commit's swap step, held for reading during search.
	committedMu sync.RWMutex
	cString     map[model.FieldId]*committed.StringField
	cNumber     map[model.FieldId]*committed.NumberField
	cBool       map[model.FieldId]*committed.BoolField
	cVector     map[model.FieldId]*committed.VectorField

	// offsetMu guards offset, the monotonic apply clock.
	offsetMu sync.Mutex
	offset   model.Offset

	// commitMu is the commit-exclusion mutex (spec §4.6 step 1): held for
	// the duration of a commit, blocking ApplyIndex but not search.
	commitMu sync.Mutex
}

// New creates an empty collection ready to receive CreateField/Index
// operations (spec §4.6's (none) -> Empty transition).
func New(id model.CollectionId, dataDir string, settings config.EngineSettings, embedder embedding.Embedder) *Collection {
	return &Collection{
		id:           id,
		dataDir:      dataDir,
		settings:     settings,
		embedder:     embedder,
		tokens:       tokenizer.NewCache(tokenizer.NewDefault()),
		fields:       make(map[model.FieldId]model.FieldMeta),
		fieldsByName: make(map[string]model.FieldId),
		modelFields:  make(map[string][]model.FieldId),
		uString:      make(map[model.FieldId]*uncommitted.StringField),
		uNumber:      make(map[model.FieldId]*uncommitted.NumberField),
		uBool:        make(map[model.FieldId]*uncommitted.BoolField),
		uVector:      make(map[model.FieldId]*uncommitted.VectorField),
		cString:      make(map[model.FieldId]*committed.StringField),
		cNumber:      make(map[model.FieldId]*committed.NumberField),
		cBool:        make(map[model.FieldId]*committed.BoolField),
		cVector:      make(map[model.FieldId]*committed.VectorField),
	}
}

// ID returns the collection id.
func (c *Collection) ID() model.CollectionId { return c.id }

// Offset returns the highest applied write-log offset.
func (c *Collection) Offset() model.Offset {
	c.offsetMu.Lock()
	defer c.offsetMu.Unlock()
	return c.offset
}

func (c *Collection) advanceOffset(offset model.Offset) {
	c.offsetMu.Lock()
	defer c.offsetMu.Unlock()
	if offset > c.offset {
		c.offset = offset
	}
}

// ApplyCreateField registers field metadata and, for Embedding fields,
// allocates the vector index and records it under its model name (spec
// §4.6's CreateField operation). A field id is bound to exactly one kind
// for the lifetime of the collection (spec invariant I1): re-applying
// CreateField for an id already in use with a different kind is rejected
// rather than silently rebinding it.
func (c *Collection) ApplyCreateField(offset model.Offset, field model.FieldMeta) error {
	c.fieldsMu.Lock()
	defer c.fieldsMu.Unlock()

	if existing, ok := c.fields[field.ID]; ok && existing.Kind != field.Kind {
		return apperrors.NewFieldKindChangeError(uint32(field.ID), existing.Kind.String(), field.Kind.String())
	}

	c.fields[field.ID] = field
	c.fieldsByName[field.Name] = field.ID

	c.uncommittedMu.Lock()
	switch field.Kind {
	case model.FieldKindText:
		c.uString[field.ID] = uncommitted.NewStringField(c.settings.PhraseGap)
	case model.FieldKindNumber:
		c.uNumber[field.ID] = uncommitted.NewNumberField()
	case model.FieldKindBool:
		c.uBool[field.ID] = uncommitted.NewBoolField()
	case model.FieldKindEmbedding:
		c.uVector[field.ID] = uncommitted.NewVectorField()
		c.modelFields[field.Model] = append(c.modelFields[field.Model], field.ID)
	default:
		c.uncommittedMu.Unlock()
		return fmt.Errorf("%w: unrecognized field kind %v", apperrors.ErrLogApply, field.Kind)
	}
	c.uncommittedMu.Unlock()

	c.advanceOffset(offset)
	return nil
}

// ApplyIndex routes a field value to the uncommitted tier by kind (spec
// §4.6's Index operation). An unknown field id is a fatal log-apply error.
func (c *Collection) ApplyIndex(offset model.Offset, docID model.DocumentId, fieldID model.FieldId, op model.FieldOp) error {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	c.fieldsMu.RLock()
	meta, ok := c.fields[fieldID]
	c.fieldsMu.RUnlock()
	if !ok {
		return apperrors.NewUnknownFieldError(uint32(fieldID))
	}

	c.uncommittedMu.RLock()
	defer c.uncommittedMu.RUnlock()

	switch {
	case meta.Kind == model.FieldKindText && op.Kind == model.IndexString:
		c.uString[fieldID].Insert(offset, docID, uint32(op.StringTerms.FieldLength), op.StringTerms.Terms)
	case meta.Kind == model.FieldKindNumber && op.Kind == model.IndexNumberOp:
		c.uNumber[fieldID].Insert(docID, op.NumberValue)
	case meta.Kind == model.FieldKindBool && op.Kind == model.IndexBooleanOp:
		c.uBool[fieldID].Insert(docID, op.BoolValue)
	case meta.Kind == model.FieldKindEmbedding && op.Kind == model.IndexEmbeddingOp:
		if len(op.Vector) != meta.Dimensions {
			return apperrors.NewDimensionMismatchError(uint32(fieldID), meta.Dimensions, len(op.Vector))
		}
		c.uVector[fieldID].Insert(docID, op.Vector)
	default:
		return fmt.Errorf("%w: field %d kind %v does not accept op kind %v", apperrors.ErrLogApply, fieldID, meta.Kind, op.Kind)
	}

	c.advanceOffset(offset)
	return nil
}

// fieldByName resolves a field name to its metadata, for filter/search
// dispatch (spec §4.7).
func (c *Collection) fieldByName(name string) (model.FieldMeta, bool) {
	c.fieldsMu.RLock()
	defer c.fieldsMu.RUnlock()
	id, ok := c.fieldsByName[name]
	if !ok {
		return model.FieldMeta{}, false
	}
	return c.fields[id], true
}

// stringFieldIDs returns every field id of kind Text, for Star property
// resolution.
func (c *Collection) stringFieldIDs() []model.FieldId {
	c.fieldsMu.RLock()
	defer c.fieldsMu.RUnlock()
	var ids []model.FieldId
	for id, meta := range c.fields {
		if meta.Kind == model.FieldKindText {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func fieldDir(dataDir string, kindDir string, fieldID model.FieldId, offset model.Offset) string {
	return filepath.Join(dataDir, kindDir, fmt.Sprintf("field-%d", fieldID), fmt.Sprintf("offset-%d", offset))
}

// resolveFilters computes the intersected doc-id set across every
// (field_name, predicate) pair (spec §4.7 step 1). A nil result with a nil
// error means "no filter" (every document passes).
func (c *Collection) resolveFilters(filter map[string]model.FieldFilter) (*roaring.Bitmap, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	var result *roaring.Bitmap
	for name, pred := range filter {
		meta, ok := c.fieldByName(name)
		if !ok {
			return nil, apperrors.NewUnknownFieldByNameError(name)
		}

		var matches *roaring.Bitmap
		switch {
		case pred.Number != nil && meta.Kind == model.FieldKindNumber:
			min, max := pred.Number.Bounds()
			matches = c.numberMatches(meta.ID, min, max)
		case pred.Bool != nil && meta.Kind == model.FieldKindBool:
			matches = c.boolMatches(meta.ID, pred.Bool.Value)
		default:
			return nil, apperrors.NewUnsupportedFilterError(name, meta.Kind.String())
		}

		if result == nil {
			result = matches
		} else {
			result.And(matches)
		}
	}
	return result, nil
}

func (c *Collection) numberMatches(fieldID model.FieldId, min, max model.Number) *roaring.Bitmap {
	c.uncommittedMu.RLock()
	uField := c.uNumber[fieldID]
	c.uncommittedMu.RUnlock()

	c.committedMu.RLock()
	cField := c.cNumber[fieldID]
	c.committedMu.RUnlock()

	out := roaring.New()
	if uField != nil {
		for _, id := range uField.Filter(min, max) {
			out.Add(uint32(id))
		}
	}
	if cField != nil {
		if ids, err := cField.Filter(min, max); err == nil {
			for _, id := range ids {
				out.Add(uint32(id))
			}
		}
	}
	return out
}

func (c *Collection) boolMatches(fieldID model.FieldId, value bool) *roaring.Bitmap {
	c.uncommittedMu.RLock()
	uField := c.uBool[fieldID]
	c.uncommittedMu.RUnlock()

	c.committedMu.RLock()
	cField := c.cBool[fieldID]
	c.committedMu.RUnlock()

	out := roaring.New()
	if uField != nil {
		out.Or(uField.Filter(value))
	}
	if cField != nil {
		out.Or(cField.Filter(value))
	}
	return out
}

// resolveProperties maps a PropertiesSelector to concrete text field ids
// (spec §4.7 step 2).
func (c *Collection) resolveProperties(sel model.PropertiesSelector) ([]model.FieldId, error) {
	if sel.Star || len(sel.Fields) == 0 {
		return c.stringFieldIDs(), nil
	}
	ids := make([]model.FieldId, 0, len(sel.Fields))
	for _, name := range sel.Fields {
		meta, ok := c.fieldByName(name)
		if !ok {
			return nil, apperrors.NewUnknownFieldByNameError(name)
		}
		if meta.Kind != model.FieldKindText {
			return nil, apperrors.NewInvalidPropertyError(name, meta.Kind.String())
		}
		ids = append(ids, meta.ID)
	}
	return ids, nil
}

func allowFunc(filterSet *roaring.Bitmap) func(model.DocumentId) bool {
	if filterSet == nil {
		return nil
	}
	return func(id model.DocumentId) bool { return filterSet.Contains(uint32(id)) }
}

// Search runs the query dispatch pipeline (spec §4.7).
func (c *Collection) Search(params model.SearchParams) (model.SearchResult, error) {
	filterSet, err := c.resolveFilters(params.Filter)
	if err != nil {
		return model.SearchResult{}, err
	}
	allow := allowFunc(filterSet)

	var scores map[model.DocumentId]float32
	switch params.Mode {
	case model.ModeFullText:
		scores, err = c.searchFullText(params, allow)
	case model.ModeVector:
		scores, err = c.searchVector(params, allow)
	case model.ModeHybrid:
		var fullText, vector map[model.DocumentId]float32
		fullText, err = c.searchFullText(params, allow)
		if err == nil {
			vector, err = c.searchVector(params, allow)
		}
		if err == nil {
			scores = fusion.Hybrid(fullText, vector)
		}
	default:
		return model.SearchResult{}, fmt.Errorf("%w: unrecognized search mode %v", apperrors.ErrLogApply, params.Mode)
	}
	if err != nil {
		return model.SearchResult{}, err
	}

	hits := topK(scores, params.Limit)
	facets := c.computeFacets(params.Facets, scores)

	return model.SearchResult{Count: len(scores), Hits: hits, Facets: facets}, nil
}

func (c *Collection) searchFullText(params model.SearchParams, allow func(model.DocumentId) bool) (map[model.DocumentId]float32, error) {
	fieldIDs, err := c.resolveProperties(params.Properties)
	if err != nil {
		return nil, err
	}

	scorer := bm25.New()
	for _, fieldID := range fieldIDs {
		c.fieldsMu.RLock()
		meta := c.fields[fieldID]
		c.fieldsMu.RUnlock()

		locale := tokenizer.Locale(meta.Locale)
		tokens := c.tokens.For(locale).Tokenize(params.Term, locale)

		c.uncommittedMu.RLock()
		uField := c.uString[fieldID]
		c.uncommittedMu.RUnlock()
		c.committedMu.RLock()
		cField := c.cString[fieldID]
		c.committedMu.RUnlock()

		n, totalLen := fieldGlobalInfo(uField, cField, c.settings.UncommittedDownWeight)
		if n == 0 {
			continue
		}
		avgdl := doclength.GlobalInfo{TotalLength: totalLen, NumDocuments: n}.AvgDocLength()

		if uField != nil {
			uField.Search(tokens, params.Boost, scorer, allow, float64(n), avgdl, c.settings.BM25K1, c.settings.BM25B)
		}
		if cField != nil {
			cField.Search(tokens, params.Boost, scorer, allow, float64(n), avgdl, c.settings.BM25K1, c.settings.BM25B)
		}
	}
	return scorer.Scores(), nil
}

// fieldGlobalInfo sums committed and uncommitted global stats. Once a
// committed generation exists, the uncommitted tier's contribution is
// down-weighted by downWeight (config.UncommittedDownWeight, Open
// Question decision 2, spec §9 P2): it is usually far smaller than the
// committed corpus, so blending it in at full weight would skew avgdl
// disproportionately. Before any commit, the uncommitted tier is the
// entire corpus and is counted at full weight.
func fieldGlobalInfo(uField *uncommitted.StringField, cField *committed.StringField, downWeight float64) (n, totalLen uint64) {
	if cField != nil {
		n, totalLen = cField.GlobalInfo()
	}
	if uField == nil {
		return n, totalLen
	}

	uN, uLen := uField.GlobalInfo()
	if cField == nil {
		return uN, uLen
	}
	n += uint64(float64(uN) / downWeight)
	totalLen += uint64(float64(uLen) / downWeight)
	return n, totalLen
}

func (c *Collection) searchVector(params model.SearchParams, allow func(model.DocumentId) bool) (map[model.DocumentId]float32, error) {
	out := make(map[model.DocumentId]float32)
	if c.embedder == nil {
		return out, nil
	}

	c.fieldsMu.RLock()
	modelFields := make(map[string][]model.FieldId, len(c.modelFields))
	for m, ids := range c.modelFields {
		modelFields[m] = append([]model.FieldId(nil), ids...)
	}
	c.fieldsMu.RUnlock()

	for modelName, fieldIDs := range modelFields {
		vectors, err := c.embedder.EmbedQuery(context.Background(), modelName, []string{params.Term})
		if err != nil || len(vectors) == 0 {
			continue
		}
		target := vectors[0]

		for _, fieldID := range fieldIDs {
			c.uncommittedMu.RLock()
			uField := c.uVector[fieldID]
			c.uncommittedMu.RUnlock()
			c.committedMu.RLock()
			cField := c.cVector[fieldID]
			c.committedMu.RUnlock()

			if uField != nil {
				uField.Search(target, allow, params.Limit, out)
			}
			if cField != nil {
				cField.Search(target, allow, params.Limit, out)
			}
		}
	}
	return out, nil
}

// computeFacets tallies Number/Bool facet counts over the matched document
// set (spec §4.7 step 5), re-using the same per-field committed+
// uncommitted data that filter resolution reads.
func (c *Collection) computeFacets(requests map[string]model.FacetRequest, matched map[model.DocumentId]float32) map[string]model.FacetResult {
	if len(requests) == 0 {
		return nil
	}

	out := make(map[string]model.FacetResult, len(requests))
	for name, req := range requests {
		meta, ok := c.fieldByName(name)
		if !ok {
			continue
		}

		switch {
		case req.Number != nil && meta.Kind == model.FieldKindNumber:
			counts := make([]model.NumberFacetCount, len(req.Number.Ranges))
			for i, r := range req.Number.Ranges {
				all := c.numberMatches(meta.ID, r.From, r.To)
				counts[i] = model.NumberFacetCount{From: r.From, To: r.To, Count: countIntersect(all, matched)}
			}
			out[name] = model.FacetResult{Number: counts}
		case req.Bool != nil && meta.Kind == model.FieldKindBool:
			trueSet := c.boolMatches(meta.ID, true)
			falseSet := c.boolMatches(meta.ID, false)
			out[name] = model.FacetResult{Bool: &model.BoolFacetCount{
				True:  countIntersect(trueSet, matched),
				False: countIntersect(falseSet, matched),
			}}
		}
	}
	return out
}

func countIntersect(ids *roaring.Bitmap, matched map[model.DocumentId]float32) int {
	count := 0
	for docID := range matched {
		if ids.Contains(uint32(docID)) {
			count++
		}
	}
	return count
}

// topK selects the limit highest-scoring hits in descending score order
// (spec §4.7 step 6). limit<=0 means "no bound": every scored document is
// returned, sorted.
type hitHeap []model.Hit

func (h hitHeap) Len() int            { return len(h) }
func (h hitHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h hitHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x interface{}) { *h = append(*h, x.(model.Hit)) }
func (h *hitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func topK(scores map[model.DocumentId]float32, limit int) []model.Hit {
	if limit <= 0 {
		hits := make([]model.Hit, 0, len(scores))
		for docID, score := range scores {
			hits = append(hits, model.Hit{DocID: docID, Score: score})
		}
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].Score != hits[j].Score {
				return hits[i].Score > hits[j].Score
			}
			return hits[i].DocID < hits[j].DocID
		})
		return hits
	}

	h := &hitHeap{}
	heap.Init(h)
	for docID, score := range scores {
		hit := model.Hit{DocID: docID, Score: score}
		if h.Len() < limit {
			heap.Push(h, hit)
			continue
		}
		if (*h)[0].Score < hit.Score {
			heap.Pop(h)
			heap.Push(h, hit)
		}
	}

	hits := make([]model.Hit, h.Len())
	for i := len(hits) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(h).(model.Hit)
	}
	return hits
}

// generationDir returns the on-disk directory for one field's committed
// generation at offset (spec §6 layout: collections/{id}/{kind}/field-{n}/offset-{o}).
func (c *Collection) generationDir(kindDir string, fieldID model.FieldId, offset model.Offset) string {
	return fieldDir(c.dataDir, kindDir, fieldID, offset)
}

const pointerFileName = "info.info"

func manifestFileName(offset model.Offset) string {
	return fmt.Sprintf("info-offset-%d.info", offset)
}

// pointer is the tiny file info.info holds: which manifest file is the
// current generation (spec §6: "write info-offset-{N}.info then atomically
// overwrite info.info").
type pointer struct {
	ManifestFile string `json:"manifest_file"`
}

func (c *Collection) loadManifest() (*model.Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(c.dataDir, pointerFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewIOError(c.dataDir, err)
	}

	var p pointer
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("collection: decode pointer file: %w", err)
	}

	manifestRaw, err := os.ReadFile(filepath.Join(c.dataDir, p.ManifestFile))
	if err != nil {
		return nil, apperrors.NewIOError(p.ManifestFile, err)
	}
	var manifest model.Manifest
	if err := json.Unmarshal(manifestRaw, &manifest); err != nil {
		return nil, fmt.Errorf("collection: decode manifest: %w", err)
	}
	return &manifest, nil
}

// writeManifest persists manifest to info-offset-{N}.info and then
// atomically repoints info.info at it, per spec §6.
func (c *Collection) writeManifest(manifest model.Manifest) error {
	if err := os.MkdirAll(c.dataDir, 0o750); err != nil {
		return apperrors.NewIOError(c.dataDir, err)
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("collection: encode manifest: %w", err)
	}

	name := manifestFileName(manifest.Offset)
	if err := os.WriteFile(filepath.Join(c.dataDir, name), raw, 0o640); err != nil { // #nosec G306 -- data dir is application-controlled
		return apperrors.NewIOError(name, err)
	}

	pointerRaw, err := json.Marshal(pointer{ManifestFile: name})
	if err != nil {
		return fmt.Errorf("collection: encode pointer file: %w", err)
	}

	tmpPath := filepath.Join(c.dataDir, pointerFileName+".tmp")
	finalPath := filepath.Join(c.dataDir, pointerFileName)
	if err := os.WriteFile(tmpPath, pointerRaw, 0o640); err != nil { // #nosec G306 -- data dir is application-controlled
		return apperrors.NewIOError(tmpPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return apperrors.NewIOError(finalPath, err)
	}
	return nil
}

// verifyFieldKinds checks that no field scheduled for this commit already
// has a committed generation filed under a different kind's map than its
// current metadata says (spec §4.6 step 4: reject on kind mismatch). Callers
// hold committedMu for reading. ApplyCreateField already rejects a kind
// change at apply time; this is the commit-time half of invariant I1,
// guarding against a manifest or committed tier that diverged from the
// in-memory metadata (e.g. stale on-disk generations from before the
// invariant was enforced).
func (c *Collection) verifyFieldKinds(fields []model.FieldMeta) error {
	for _, meta := range fields {
		var foundKind model.FieldKind
		var found bool
		switch {
		case c.cString[meta.ID] != nil:
			foundKind, found = model.FieldKindText, true
		case c.cNumber[meta.ID] != nil:
			foundKind, found = model.FieldKindNumber, true
		case c.cBool[meta.ID] != nil:
			foundKind, found = model.FieldKindBool, true
		case c.cVector[meta.ID] != nil:
			foundKind, found = model.FieldKindEmbedding, true
		}
		if found && foundKind != meta.Kind {
			return apperrors.NewFieldKindChangeError(uint32(meta.ID), foundKind.String(), meta.Kind.String())
		}
	}
	return nil
}

// Commit folds every field's uncommitted tier into a fresh committed
// generation and publishes a new manifest (spec §4.6's Commit operation).
// Holding commitMu excludes concurrent commits and holds ApplyIndex back
// until the commit finishes; search takes only its own, finer-grained
// locks and is not blocked.
func (c *Collection) Commit() error {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	offset := c.Offset()

	c.fieldsMu.RLock()
	fields := make([]model.FieldMeta, 0, len(c.fields))
	for _, meta := range c.fields {
		fields = append(fields, meta)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].ID < fields[j].ID })
	modelFields := make([]model.ModelFields, 0, len(c.modelFields))
	for name, ids := range c.modelFields {
		sorted := append([]model.FieldId(nil), ids...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		modelFields = append(modelFields, model.ModelFields{Model: name, FieldIDs: sorted})
	}
	sort.Slice(modelFields, func(i, j int) bool { return modelFields[i].Model < modelFields[j].Model })
	c.fieldsMu.RUnlock()

	manifest := model.Manifest{Version: model.ManifestVersion, Offset: offset, Fields: fields, ModelToFieldIDs: modelFields}

	c.committedMu.RLock()
	kindErr := c.verifyFieldKinds(fields)
	c.committedMu.RUnlock()
	if kindErr != nil {
		return kindErr
	}

	newString := make(map[model.FieldId]*committed.StringField)
	newNumber := make(map[model.FieldId]*committed.NumberField)
	newBool := make(map[model.FieldId]*committed.BoolField)
	newVector := make(map[model.FieldId]*committed.VectorField)

	for _, meta := range fields {
		switch meta.Kind {
		case model.FieldKindText:
			c.uncommittedMu.RLock()
			uField := c.uString[meta.ID]
			c.uncommittedMu.RUnlock()
			snapshot := uField.Take()

			c.committedMu.RLock()
			prev := c.cString[meta.ID]
			c.committedMu.RUnlock()

			dir := c.generationDir("string", meta.ID, offset)
			var built *committed.StringField
			var err error
			if prev == nil {
				built, err = committed.BuildStringField(dir, c.settings.PhraseGap, snapshot.Terms, snapshot.Lengths)
			} else {
				built, err = committed.MergeStringField(dir, c.settings.PhraseGap, prev, snapshot.Terms, snapshot.Lengths)
			}
			if err != nil {
				return fmt.Errorf("collection: commit string field %d: %w", meta.ID, err)
			}
			newString[meta.ID] = built
			manifest.StringFields = append(manifest.StringFields, model.FieldInfo{FieldID: meta.ID, Path: dir})

		case model.FieldKindNumber:
			c.uncommittedMu.RLock()
			uField := c.uNumber[meta.ID]
			c.uncommittedMu.RUnlock()
			entries := uField.Take()

			c.committedMu.RLock()
			prev := c.cNumber[meta.ID]
			c.committedMu.RUnlock()

			dir := c.generationDir("number", meta.ID, offset)
			var built *committed.NumberField
			var err error
			if prev == nil {
				built, err = committed.BuildNumberField(dir, c.settings.PageCapacity, entries)
			} else {
				built, err = committed.MergeNumberField(dir, c.settings.PageCapacity, prev, entries)
			}
			if err != nil {
				return fmt.Errorf("collection: commit number field %d: %w", meta.ID, err)
			}
			newNumber[meta.ID] = built
			manifest.NumberFields = append(manifest.NumberFields, model.FieldInfo{FieldID: meta.ID, Path: dir})

		case model.FieldKindBool:
			c.uncommittedMu.RLock()
			uField := c.uBool[meta.ID]
			c.uncommittedMu.RUnlock()
			newTrue, newFalse := uField.Take()

			c.committedMu.RLock()
			prev := c.cBool[meta.ID]
			c.committedMu.RUnlock()

			dir := c.generationDir("bool", meta.ID, offset)
			var built *committed.BoolField
			var err error
			if prev == nil {
				built, err = committed.BuildBoolField(dir, newTrue, newFalse)
			} else {
				built, err = committed.MergeBoolField(dir, prev, newTrue, newFalse)
			}
			if err != nil {
				return fmt.Errorf("collection: commit bool field %d: %w", meta.ID, err)
			}
			newBool[meta.ID] = built
			manifest.BoolFields = append(manifest.BoolFields, model.FieldInfo{FieldID: meta.ID, Path: dir})

		case model.FieldKindEmbedding:
			c.uncommittedMu.RLock()
			uField := c.uVector[meta.ID]
			c.uncommittedMu.RUnlock()
			entries := uField.Take()

			c.committedMu.RLock()
			prev := c.cVector[meta.ID]
			c.committedMu.RUnlock()

			dir := c.generationDir("vector", meta.ID, offset)
			var built *committed.VectorField
			var err error
			if prev == nil {
				built, err = committed.BuildVectorField(dir, entries)
			} else {
				built, err = committed.MergeVectorField(dir, prev, entries)
			}
			if err != nil {
				return fmt.Errorf("collection: commit vector field %d: %w", meta.ID, err)
			}
			newVector[meta.ID] = built
			manifest.VectorFields = append(manifest.VectorFields, model.FieldInfo{FieldID: meta.ID, Path: dir})
		}
	}

	if err := c.writeManifest(manifest); err != nil {
		return err
	}

	c.committedMu.Lock()
	for id, f := range newString {
		if prev := c.cString[id]; prev != nil {
			prev.Close()
		}
		c.cString[id] = f
	}
	for id, f := range newNumber {
		c.cNumber[id] = f
	}
	for id, f := range newBool {
		c.cBool[id] = f
	}
	for id, f := range newVector {
		c.cVector[id] = f
	}
	c.committedMu.Unlock()

	return nil
}

// Load reopens a collection from its last published manifest (spec §4.6's
// Load operation), instantiating committed field readers and fresh, empty
// uncommitted tiers. Load replays nothing: operations applied after the
// manifest's offset are not present in the reopened collection.
func Load(id model.CollectionId, dataDir string, settings config.EngineSettings, embedder embedding.Embedder) (*Collection, error) {
	c := New(id, dataDir, settings, embedder)

	manifest, err := c.loadManifest()
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		return c, nil
	}

	c.fieldsMu.Lock()
	for _, meta := range manifest.Fields {
		c.fields[meta.ID] = meta
		c.fieldsByName[meta.Name] = meta.ID
	}
	for _, mf := range manifest.ModelToFieldIDs {
		c.modelFields[mf.Model] = append([]model.FieldId(nil), mf.FieldIDs...)
	}
	c.fieldsMu.Unlock()

	c.uncommittedMu.Lock()
	for _, meta := range manifest.Fields {
		switch meta.Kind {
		case model.FieldKindText:
			c.uString[meta.ID] = uncommitted.NewStringField(settings.PhraseGap)
		case model.FieldKindNumber:
			c.uNumber[meta.ID] = uncommitted.NewNumberField()
		case model.FieldKindBool:
			c.uBool[meta.ID] = uncommitted.NewBoolField()
		case model.FieldKindEmbedding:
			c.uVector[meta.ID] = uncommitted.NewVectorField()
		}
	}
	c.uncommittedMu.Unlock()

	c.committedMu.Lock()
	for _, info := range manifest.StringFields {
		f, err := committed.LoadStringField(info.Path, settings.PhraseGap)
		if err != nil {
			c.committedMu.Unlock()
			return nil, fmt.Errorf("collection: load string field %d: %w", info.FieldID, err)
		}
		c.cString[info.FieldID] = f
	}
	for _, info := range manifest.NumberFields {
		f, err := committed.LoadNumberField(info.Path)
		if err != nil {
			c.committedMu.Unlock()
			return nil, fmt.Errorf("collection: load number field %d: %w", info.FieldID, err)
		}
		c.cNumber[info.FieldID] = f
	}
	for _, info := range manifest.BoolFields {
		f, err := committed.LoadBoolField(info.Path)
		if err != nil {
			c.committedMu.Unlock()
			return nil, fmt.Errorf("collection: load bool field %d: %w", info.FieldID, err)
		}
		c.cBool[info.FieldID] = f
	}
	for _, info := range manifest.VectorFields {
		f, err := committed.LoadVectorField(info.Path)
		if err != nil {
			c.committedMu.Unlock()
			return nil, fmt.Errorf("collection: load vector field %d: %w", info.FieldID, err)
		}
		c.cVector[info.FieldID] = f
	}
	c.committedMu.Unlock()

	c.advanceOffset(manifest.Offset)
	return c, nil
}
