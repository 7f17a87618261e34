package collection

import (
	"path/filepath"
	"testing"

	"github.com/gcbaptista/docretrieval/config"
	"github.com/gcbaptista/docretrieval/embedding"
	"github.com/gcbaptista/docretrieval/internal/apperrors"
	"github.com/gcbaptista/docretrieval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positions(values ...int) model.Positions {
	p := make(model.Positions, len(values))
	for i, v := range values {
		p[i] = v
	}
	return p
}

func newTestCollection(t *testing.T) (*Collection, config.EngineSettings) {
	t.Helper()
	settings := config.DefaultSettings(t.TempDir())
	dataDir := filepath.Join(settings.DataDir, "collections", "widgets")
	embedder := embedding.NewDeterministic(map[string]int{"m": 4})
	return New(model.CollectionId("widgets"), dataDir, settings, embedder), settings
}

func mustCreateField(t *testing.T, c *Collection, offset model.Offset, meta model.FieldMeta) {
	t.Helper()
	require.NoError(t, c.ApplyCreateField(offset, meta))
}

func TestApplyIndexRejectsUnknownField(t *testing.T) {
	c, _ := newTestCollection(t)
	err := c.ApplyIndex(1, model.DocumentId(1), model.FieldId(99), model.FieldOp{Kind: model.IndexString})
	assert.Error(t, err)
}

func TestApplyCreateFieldRejectsKindChange(t *testing.T) {
	c, _ := newTestCollection(t)
	mustCreateField(t, c, 1, model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText})

	err := c.ApplyCreateField(2, model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindNumber})
	require.Error(t, err)

	var kindErr *apperrors.FieldKindChangeError
	require.ErrorAs(t, err, &kindErr)
	assert.Equal(t, model.FieldKindText.String(), kindErr.Original)
	assert.Equal(t, model.FieldKindNumber.String(), kindErr.Found)
}

func TestSearchFullTextFindsIndexedTerm(t *testing.T) {
	c, _ := newTestCollection(t)
	mustCreateField(t, c, 1, model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText})

	err := c.ApplyIndex(2, model.DocumentId(1), model.FieldId(1), model.FieldOp{
		Kind: model.IndexString,
		StringTerms: model.IndexStringTerms{
			FieldLength: 2,
			Terms:       map[string]model.Positions{"widget": positions(0)},
		},
	})
	require.NoError(t, err)

	result, err := c.Search(model.SearchParams{
		Mode:       model.ModeFullText,
		Term:       "widget",
		Properties: model.PropertiesSelector{Star: true},
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, model.DocumentId(1), result.Hits[0].DocID)
}

func TestSearchAppliesNumberFilter(t *testing.T) {
	c, _ := newTestCollection(t)
	mustCreateField(t, c, 1, model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText})
	mustCreateField(t, c, 1, model.FieldMeta{ID: 2, Name: "price", Kind: model.FieldKindNumber})

	for docID, price := range map[model.DocumentId]float64{1: 5, 2: 50} {
		require.NoError(t, c.ApplyIndex(2, docID, model.FieldId(1), model.FieldOp{
			Kind: model.IndexString,
			StringTerms: model.IndexStringTerms{
				FieldLength: 1,
				Terms:       map[string]model.Positions{"widget": positions(0)},
			},
		}))
		value, err := model.NewNumber(price)
		require.NoError(t, err)
		require.NoError(t, c.ApplyIndex(2, docID, model.FieldId(2), model.FieldOp{Kind: model.IndexNumberOp, NumberValue: value}))
	}

	cheap, err := model.NewNumber(10)
	require.NoError(t, err)
	result, err := c.Search(model.SearchParams{
		Mode:       model.ModeFullText,
		Term:       "widget",
		Properties: model.PropertiesSelector{Star: true},
		Limit:      10,
		Filter: map[string]model.FieldFilter{
			"price": {Number: &model.NumberPred{Kind: model.NumberLessOrEqual, A: cheap}},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, model.DocumentId(1), result.Hits[0].DocID)
}

func TestSearchComputesBoolFacet(t *testing.T) {
	c, _ := newTestCollection(t)
	mustCreateField(t, c, 1, model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText})
	mustCreateField(t, c, 1, model.FieldMeta{ID: 2, Name: "in_stock", Kind: model.FieldKindBool})

	inStock := map[model.DocumentId]bool{1: true, 2: false}
	for docID, flag := range inStock {
		require.NoError(t, c.ApplyIndex(2, docID, model.FieldId(1), model.FieldOp{
			Kind: model.IndexString,
			StringTerms: model.IndexStringTerms{
				FieldLength: 1,
				Terms:       map[string]model.Positions{"widget": positions(0)},
			},
		}))
		require.NoError(t, c.ApplyIndex(2, docID, model.FieldId(2), model.FieldOp{Kind: model.IndexBooleanOp, BoolValue: flag}))
	}

	result, err := c.Search(model.SearchParams{
		Mode:       model.ModeFullText,
		Term:       "widget",
		Properties: model.PropertiesSelector{Star: true},
		Limit:      10,
		Facets: map[string]model.FacetRequest{
			"in_stock": {Bool: &model.BoolFacet{}},
		},
	})
	require.NoError(t, err)
	require.Contains(t, result.Facets, "in_stock")
	assert.Equal(t, 1, result.Facets["in_stock"].Bool.True)
	assert.Equal(t, 1, result.Facets["in_stock"].Bool.False)
}

func TestCommitThenSearchStillFindsDocument(t *testing.T) {
	c, _ := newTestCollection(t)
	mustCreateField(t, c, 1, model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText})
	require.NoError(t, c.ApplyIndex(2, model.DocumentId(1), model.FieldId(1), model.FieldOp{
		Kind: model.IndexString,
		StringTerms: model.IndexStringTerms{
			FieldLength: 1,
			Terms:       map[string]model.Positions{"widget": positions(0)},
		},
	}))

	require.NoError(t, c.Commit())

	result, err := c.Search(model.SearchParams{
		Mode:       model.ModeFullText,
		Term:       "widget",
		Properties: model.PropertiesSelector{Star: true},
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, model.DocumentId(1), result.Hits[0].DocID)
}

func TestLoadReopensCommittedGeneration(t *testing.T) {
	c, settings := newTestCollection(t)
	mustCreateField(t, c, 1, model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText})
	require.NoError(t, c.ApplyIndex(2, model.DocumentId(1), model.FieldId(1), model.FieldOp{
		Kind: model.IndexString,
		StringTerms: model.IndexStringTerms{
			FieldLength: 1,
			Terms:       map[string]model.Positions{"widget": positions(0)},
		},
	}))
	require.NoError(t, c.Commit())

	reopened, err := Load(model.CollectionId("widgets"), c.dataDir, settings, embedding.NewDeterministic(map[string]int{"m": 4}))
	require.NoError(t, err)
	assert.Equal(t, model.Offset(2), reopened.Offset())

	result, err := reopened.Search(model.SearchParams{
		Mode:       model.ModeFullText,
		Term:       "widget",
		Properties: model.PropertiesSelector{Star: true},
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
}

func TestSearchRejectsUnknownProperty(t *testing.T) {
	c, _ := newTestCollection(t)
	_, err := c.Search(model.SearchParams{
		Mode:       model.ModeFullText,
		Term:       "widget",
		Properties: model.PropertiesSelector{Fields: []string{"nope"}},
		Limit:      10,
	})
	assert.Error(t, err)
}
