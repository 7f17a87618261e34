package pageindex

import (
	"testing"

	"github.com/gcbaptista/docretrieval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(t *testing.T, v float64) model.Number {
	t.Helper()
	n, err := model.NewNumber(v)
	require.NoError(t, err)
	return n
}

func buildSample(t *testing.T, dir string, capacity int) *Index[model.Number, model.DocumentId] {
	t.Helper()
	entries := []Item[model.Number, model.DocumentId]{
		{Key: num(t, -1), Values: []model.DocumentId{1, 2, 3}},
		{Key: num(t, 1), Values: []model.DocumentId{4, 5, 6}},
		{Key: num(t, 2), Values: []model.DocumentId{1, 3, 5}},
	}
	idx, err := Build(dir, capacity, model.MinNumber, model.MaxNumber, entries)
	require.NoError(t, err)
	return idx
}

func flatten(items []Item[model.Number, model.DocumentId]) []model.DocumentId {
	var out []model.DocumentId
	for _, it := range items {
		out = append(out, it.Values...)
	}
	return out
}

func TestGetItemsExactKey(t *testing.T) {
	idx := buildSample(t, t.TempDir(), 1000)

	items, err := idx.GetItems(num(t, 1), num(t, 1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.DocumentId{4, 5, 6}, flatten(items))
}

func TestGetItemsRangeOutsideData(t *testing.T) {
	idx := buildSample(t, t.TempDir(), 1000)

	items, err := idx.GetItems(num(t, -10), num(t, -8))
	require.NoError(t, err)
	assert.Empty(t, flatten(items))
}

func TestGetItemsFullRange(t *testing.T) {
	idx := buildSample(t, t.TempDir(), 1000)

	items, err := idx.GetItems(num(t, -10), num(t, 10))
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.DocumentId{1, 2, 3, 4, 5, 6, 1, 3, 5}, flatten(items))
}

func TestGetItemsUnboundedSentinels(t *testing.T) {
	idx := buildSample(t, t.TempDir(), 1000)

	items, err := idx.GetItems(model.MinNumber, model.MaxNumber)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.DocumentId{1, 2, 3, 4, 5, 6, 1, 3, 5}, flatten(items))
}

func TestBuildFlushesAcrossMultiplePages(t *testing.T) {
	dir := t.TempDir()
	idx := buildSample(t, dir, 2) // small capacity forces multiple pages
	assert.Greater(t, len(idx.bounds), 1)

	items, err := idx.GetItems(num(t, 1), num(t, 1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.DocumentId{4, 5, 6}, flatten(items))
}

func TestLoadReopensPersistedIndex(t *testing.T) {
	dir := t.TempDir()
	buildSample(t, dir, 1000)

	reopened, err := Load[model.Number, model.DocumentId](dir)
	require.NoError(t, err)

	items, err := reopened.GetItems(num(t, 2), num(t, 2))
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.DocumentId{1, 3, 5}, flatten(items))
}

func TestAllReturnsEveryItem(t *testing.T) {
	idx := buildSample(t, t.TempDir(), 1000)

	items, err := idx.All()
	require.NoError(t, err)
	assert.Len(t, items, 3)
}
