package uncommitted

import (
	"testing"

	"github.com/gcbaptista/docretrieval/internal/bm25"
	"github.com/gcbaptista/docretrieval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringFieldInsertAndGlobalInfo(t *testing.T) {
	f := NewStringField(1)
	f.Insert(1, 1, 3, map[string]model.Positions{"hello": {0, 1}, "world": {2}})
	f.Insert(2, 2, 2, map[string]model.Positions{"hello": {0}, "tom": {1}})

	docs, length := f.GlobalInfo()
	assert.Equal(t, uint64(2), docs)
	assert.Equal(t, uint64(5), length)
}

func TestStringFieldSingleTermHigherTFScoresHigher(t *testing.T) {
	f := NewStringField(1)
	f.Insert(1, 1, 2, map[string]model.Positions{"hello": {0, 1}})
	f.Insert(2, 2, 1, map[string]model.Positions{"hello": {0}})

	n, avgdl := float64(2), 1.5
	scorer := bm25.New()
	f.Search([]string{"hello"}, 1.0, scorer, nil, n, avgdl, 1.2, 0.75)

	scores := scorer.Scores()
	require.Contains(t, scores, model.DocumentId(1))
	require.Contains(t, scores, model.DocumentId(2))
	assert.Greater(t, scores[1], scores[2])
}

func TestStringFieldSearchRespectsAllowFilter(t *testing.T) {
	f := NewStringField(1)
	f.Insert(1, 1, 1, map[string]model.Positions{"hello": {0}})
	f.Insert(2, 2, 1, map[string]model.Positions{"hello": {0}})

	scorer := bm25.New()
	f.Search([]string{"hello"}, 1.0, scorer, func(id model.DocumentId) bool { return id == 1 }, 2, 1, 1.2, 0.75)

	scores := scorer.Scores()
	assert.Contains(t, scores, model.DocumentId(1))
	assert.NotContains(t, scores, model.DocumentId(2))
}

func TestStringFieldPhraseBoostsConsecutivePositions(t *testing.T) {
	// A wider-than-default phrase gap (2) makes adjacent positions (diff 1)
	// count as a sequence; equal field lengths isolate the boost from
	// BM25's length-normalization effect.
	f := NewStringField(2)
	f.Insert(1, 1, 5, map[string]model.Positions{"hello": {0}, "world": {1}})
	f.Insert(2, 2, 5, map[string]model.Positions{"hello": {0}, "world": {4}})

	scorer := bm25.New()
	f.Search([]string{"hello", "world"}, 0, scorer, nil, 2, 5, 1.2, 0.75)

	scores := scorer.Scores()
	assert.Greater(t, scores[1], scores[2])
}

func TestStringFieldDefaultPhraseGapMatchesOriginalDisabledBoost(t *testing.T) {
	// With the spec's default PhraseGap of 1, no pair of distinct sorted
	// positions has a gap < 1, so sequences_count is always zero —
	// matching the original implementation's literal "< 1" comparison.
	f := NewStringField(1)
	f.Insert(1, 1, 5, map[string]model.Positions{"hello": {0}, "world": {1}})

	scorer := bm25.New()
	f.Search([]string{"hello", "world"}, 0, scorer, nil, 1, 5, 1.2, 0.75)
	_ = scorer.Scores()
	assert.Equal(t, 0, sequencesCount(model.Positions{0, 1}, 1))
}

func TestStringFieldTakeResetsState(t *testing.T) {
	f := NewStringField(1)
	f.Insert(1, 1, 1, map[string]model.Positions{"hello": {0}})

	snap := f.Take()
	assert.Len(t, snap.Terms, 1)
	assert.Equal(t, "hello", snap.Terms[0].Term)

	docs, length := f.GlobalInfo()
	assert.Zero(t, docs)
	assert.Zero(t, length)
}

func TestSequencesCount(t *testing.T) {
	assert.Equal(t, 2, sequencesCount(model.Positions{0, 1, 2, 10}, 2))
	assert.Equal(t, 0, sequencesCount(model.Positions{0, 5, 10}, 1))
}
