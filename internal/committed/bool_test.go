package committed

import (
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBoolFieldFilterAndSave(t *testing.T) {
	trueDocs := roaring.New()
	trueDocs.Add(1)
	trueDocs.Add(2)
	falseDocs := roaring.New()
	falseDocs.Add(3)

	field, err := BuildBoolField(t.TempDir(), trueDocs, falseDocs)
	require.NoError(t, err)

	assert.True(t, field.Filter(true).Contains(1))
	assert.True(t, field.Filter(false).Contains(3))
}

func TestMergeBoolFieldUnionsAndKeepsPartition(t *testing.T) {
	baseDir := t.TempDir()
	trueDocs := roaring.New()
	trueDocs.Add(1)
	falseDocs := roaring.New()
	falseDocs.Add(2)
	prev, err := BuildBoolField(filepath.Join(baseDir, "gen0"), trueDocs, falseDocs)
	require.NoError(t, err)

	newTrue := roaring.New()
	newTrue.Add(2) // doc 2 flips from false to true
	newFalse := roaring.New()

	merged, err := MergeBoolField(filepath.Join(baseDir, "gen1"), prev, newTrue, newFalse)
	require.NoError(t, err)

	assert.True(t, merged.Filter(true).Contains(1))
	assert.True(t, merged.Filter(true).Contains(2))
	assert.False(t, merged.Filter(false).Contains(2))

	intersection := merged.Filter(true)
	intersection.And(merged.Filter(false))
	assert.True(t, intersection.IsEmpty())
}

func TestLoadBoolFieldReopens(t *testing.T) {
	dir := t.TempDir()
	trueDocs := roaring.New()
	trueDocs.Add(5)
	_, err := BuildBoolField(dir, trueDocs, roaring.New())
	require.NoError(t, err)

	reopened, err := LoadBoolField(dir)
	require.NoError(t, err)
	assert.True(t, reopened.Filter(true).Contains(5))
	assert.False(t, reopened.Filter(true).Contains(6))
}
