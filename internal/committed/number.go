package committed

import (
	"fmt"
	"sort"

	"github.com/gcbaptista/docretrieval/internal/pageindex"
	"github.com/gcbaptista/docretrieval/internal/uncommitted"
	"github.com/gcbaptista/docretrieval/model"
)

// NumberField is a committed Number field's on-disk index: an ordered-key
// page index (spec §4.1) with K = model.Number, V = model.DocumentId.
type NumberField struct {
	index *pageindex.Index[model.Number, model.DocumentId]
}

// groupByValue collapses entries into a value -> sorted doc-id list map,
// ready to feed pageindex.Build's sorted-key requirement.
func groupByValue(entries []uncommitted.NumberEntry) map[model.Number][]model.DocumentId {
	grouped := make(map[model.Number][]model.DocumentId)
	for _, e := range entries {
		grouped[e.Value] = append(grouped[e.Value], e.DocID)
	}
	return grouped
}

func sortedItems(grouped map[model.Number][]model.DocumentId) []pageindex.Item[model.Number, model.DocumentId] {
	values := make([]model.Number, 0, len(grouped))
	for v := range grouped {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Compare(values[j]) < 0 })

	items := make([]pageindex.Item[model.Number, model.DocumentId], len(values))
	for i, v := range values {
		items[i] = pageindex.Item[model.Number, model.DocumentId]{Key: v, Values: grouped[v]}
	}
	return items
}

// BuildNumberField writes a brand-new committed generation, per spec
// §4.1/§4.4.
func BuildNumberField(dir string, capacity int, entries []uncommitted.NumberEntry) (*NumberField, error) {
	items := sortedItems(groupByValue(entries))
	idx, err := pageindex.Build(dir, capacity, model.MinNumber, model.MaxNumber, items)
	if err != nil {
		return nil, fmt.Errorf("committed: build number field: %w", err)
	}
	return &NumberField{index: idx}, nil
}

// MergeNumberField folds newEntries into prev's data and rebuilds a fresh
// page index at dir — the ordered-key index has no incremental append, so
// (matching original_source/'s own OrderedKeyIndex::from_iter over a
// merged iterator) each commit rebuilds the whole structure from the
// union of previous and new entries.
func MergeNumberField(dir string, capacity int, prev *NumberField, newEntries []uncommitted.NumberEntry) (*NumberField, error) {
	prevItems, err := prev.index.All()
	if err != nil {
		return nil, fmt.Errorf("committed: read previous number entries: %w", err)
	}

	grouped := make(map[model.Number][]model.DocumentId)
	for _, it := range prevItems {
		grouped[it.Key] = append(grouped[it.Key], it.Values...)
	}
	for _, e := range newEntries {
		grouped[e.Value] = append(grouped[e.Value], e.DocID)
	}

	items := sortedItems(grouped)
	idx, err := pageindex.Build(dir, capacity, model.MinNumber, model.MaxNumber, items)
	if err != nil {
		return nil, fmt.Errorf("committed: merge number field: %w", err)
	}
	return &NumberField{index: idx}, nil
}

// LoadNumberField reopens a committed generation from dir.
func LoadNumberField(dir string) (*NumberField, error) {
	idx, err := pageindex.Load[model.Number, model.DocumentId](dir)
	if err != nil {
		return nil, fmt.Errorf("committed: load number field: %w", err)
	}
	return &NumberField{index: idx}, nil
}

// Filter returns every document whose value lies in [min, max].
func (f *NumberField) Filter(min, max model.Number) ([]model.DocumentId, error) {
	items, err := f.index.GetItems(min, max)
	if err != nil {
		return nil, fmt.Errorf("committed: filter number field: %w", err)
	}
	var out []model.DocumentId
	for _, it := range items {
		out = append(out, it.Values...)
	}
	return out, nil
}
