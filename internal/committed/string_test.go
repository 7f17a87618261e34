package committed

import (
	"path/filepath"
	"testing"

	"github.com/gcbaptista/docretrieval/internal/bm25"
	"github.com/gcbaptista/docretrieval/internal/uncommitted"
	"github.com/gcbaptista/docretrieval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleField(t *testing.T, dir string) *StringField {
	t.Helper()
	terms := []uncommitted.TermPostings{
		{Term: "hello", Positions: map[model.DocumentId]model.Positions{1: {0, 1}, 2: {0}}},
		{Term: "world", Positions: map[model.DocumentId]model.Positions{1: {2}}},
	}
	lengths := map[model.DocumentId]uint32{1: 3, 2: 1}
	field, err := BuildStringField(dir, 1, terms, lengths)
	require.NoError(t, err)
	t.Cleanup(func() { _ = field.Close() })
	return field
}

func TestBuildStringFieldSearchSingleTerm(t *testing.T) {
	field := buildSampleField(t, t.TempDir())
	n, totalLen := field.GlobalInfo()
	avgdl := float64(totalLen) / float64(n)

	scorer := bm25.New()
	field.Search([]string{"hello"}, 1.0, scorer, nil, float64(n), avgdl, 1.2, 0.75)

	scores := scorer.Scores()
	assert.Contains(t, scores, model.DocumentId(1))
	assert.Contains(t, scores, model.DocumentId(2))
}

func TestBuildStringFieldMissingTermIsNoOp(t *testing.T) {
	field := buildSampleField(t, t.TempDir())

	scorer := bm25.New()
	field.Search([]string{"nonexistent"}, 1.0, scorer, nil, 2, 2, 1.2, 0.75)
	assert.Empty(t, scorer.Scores())
}

func TestMergeStringFieldKeepsCommittedPostingAndAddsNew(t *testing.T) {
	baseDir := t.TempDir()
	prev := buildSampleField(t, filepath.Join(baseDir, "gen0"))

	newTerms := []uncommitted.TermPostings{
		{Term: "hello", Positions: map[model.DocumentId]model.Positions{3: {0}}},
		{Term: "new", Positions: map[model.DocumentId]model.Positions{3: {1}}},
	}
	newLengths := map[model.DocumentId]uint32{3: 2}

	merged, err := MergeStringField(filepath.Join(baseDir, "gen1"), 1, prev, newTerms, newLengths)
	require.NoError(t, err)
	t.Cleanup(func() { _ = merged.Close() })

	scorer := bm25.New()
	merged.Search([]string{"hello"}, 1.0, scorer, nil, 3, 2, 1.2, 0.75)
	scores := scorer.Scores()
	assert.Contains(t, scores, model.DocumentId(1))
	assert.Contains(t, scores, model.DocumentId(2))
	assert.Contains(t, scores, model.DocumentId(3))

	scorer2 := bm25.New()
	merged.Search([]string{"new"}, 1.0, scorer2, nil, 3, 2, 1.2, 0.75)
	assert.Contains(t, scorer2.Scores(), model.DocumentId(3))
}

func TestLoadStringFieldReopensGeneration(t *testing.T) {
	dir := t.TempDir()
	buildSampleField(t, dir)

	reopened, err := LoadStringField(dir, 1)
	require.NoError(t, err)
	defer reopened.Close()

	n, _ := reopened.GlobalInfo()
	assert.Equal(t, uint64(2), n)
}
