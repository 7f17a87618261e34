package committed

import (
	"path/filepath"
	"testing"

	"github.com/gcbaptista/docretrieval/internal/uncommitted"
	"github.com/gcbaptista/docretrieval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildVectorFieldSearch(t *testing.T) {
	entries := []uncommitted.VectorEntry{
		{DocID: 1, Vector: []float32{1, 0}},
		{DocID: 2, Vector: []float32{0, 1}},
	}
	field, err := BuildVectorField(t.TempDir(), entries)
	require.NoError(t, err)

	out := make(map[model.DocumentId]float32)
	field.Search([]float32{1, 0}, nil, 1, out)

	assert.Len(t, out, 1)
	assert.Contains(t, out, model.DocumentId(1))
}

func TestMergeVectorFieldConcatenates(t *testing.T) {
	baseDir := t.TempDir()
	prev, err := BuildVectorField(filepath.Join(baseDir, "gen0"), []uncommitted.VectorEntry{
		{DocID: 1, Vector: []float32{1, 0}},
	})
	require.NoError(t, err)

	merged, err := MergeVectorField(filepath.Join(baseDir, "gen1"), prev, []uncommitted.VectorEntry{
		{DocID: 2, Vector: []float32{0, 1}},
	})
	require.NoError(t, err)

	out := make(map[model.DocumentId]float32)
	merged.Search([]float32{1, 0}, nil, 0, out)
	assert.Len(t, out, 2)
}

func TestLoadVectorFieldReopens(t *testing.T) {
	dir := t.TempDir()
	_, err := BuildVectorField(dir, []uncommitted.VectorEntry{{DocID: 1, Vector: []float32{1, 1}}})
	require.NoError(t, err)

	reopened, err := LoadVectorField(dir)
	require.NoError(t, err)

	out := make(map[model.DocumentId]float32)
	reopened.Search([]float32{1, 1}, nil, 0, out)
	assert.Contains(t, out, model.DocumentId(1))
}
