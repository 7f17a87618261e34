package ingest

import (
	"context"
	"testing"

	"github.com/gcbaptista/docretrieval/config"
	"github.com/gcbaptista/docretrieval/embedding"
	"github.com/gcbaptista/docretrieval/internal/registry"
	"github.com/gcbaptista/docretrieval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *registry.Registry) {
	t.Helper()
	settings := config.DefaultSettings(t.TempDir())
	reg, err := registry.Open(settings, embedding.NewDeterministic(map[string]int{"m": 4}))
	require.NoError(t, err)
	return NewDispatcher(reg, 2), reg
}

func TestApplyCreateCollectionThenField(t *testing.T) {
	d, reg := newTestDispatcher(t)

	_, err := d.Apply(context.Background(), model.Operation{Offset: 1, Kind: model.OpCreateCollection, Collection: "widgets"})
	require.NoError(t, err)

	_, err = d.Apply(context.Background(), model.Operation{
		Offset:     2,
		Kind:       model.OpCreateField,
		Collection: "widgets",
		Field:      model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText},
	})
	require.NoError(t, err)

	c, err := reg.Get("widgets")
	require.NoError(t, err)
	assert.Equal(t, model.Offset(2), c.Offset())
}

func TestApplyIndexRoutesToCollection(t *testing.T) {
	d, reg := newTestDispatcher(t)
	_, err := d.Apply(context.Background(), model.Operation{Offset: 1, Kind: model.OpCreateCollection, Collection: "widgets"})
	require.NoError(t, err)
	_, err = d.Apply(context.Background(), model.Operation{
		Offset: 2, Kind: model.OpCreateField, Collection: "widgets",
		Field: model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText},
	})
	require.NoError(t, err)

	_, err = d.Apply(context.Background(), model.Operation{
		Offset: 3, Kind: model.OpIndex, Collection: "widgets", DocID: 1,
		Field: model.FieldMeta{ID: 1},
		FieldOp: model.FieldOp{
			Kind: model.IndexString,
			StringTerms: model.IndexStringTerms{
				FieldLength: 1,
				Terms:       map[string]model.Positions{"widget": {0}},
			},
		},
	})
	require.NoError(t, err)

	c, err := reg.Get("widgets")
	require.NoError(t, err)
	result, err := c.Search(model.SearchParams{
		Mode:       model.ModeFullText,
		Term:       "widget",
		Properties: model.PropertiesSelector{Star: true},
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Len(t, result.Hits, 1)
}

func TestApplyUnknownCollectionRecordsFailedLedgerEntry(t *testing.T) {
	d, _ := newTestDispatcher(t)
	id, err := d.Apply(context.Background(), model.Operation{
		Offset: 1, Kind: model.OpCreateField, Collection: "nope",
		Field: model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText},
	})
	require.Error(t, err)
	require.NotEmpty(t, id)

	ledger := d.Ledger()
	require.Len(t, ledger, 1)
	assert.Equal(t, LedgerFailed, ledger[0].Status)
}

func TestApplyCreateCollectionTwiceIsIdempotent(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.Apply(context.Background(), model.Operation{Offset: 1, Kind: model.OpCreateCollection, Collection: "widgets"})
	require.NoError(t, err)
	_, err = d.Apply(context.Background(), model.Operation{Offset: 2, Kind: model.OpCreateCollection, Collection: "widgets"})
	assert.NoError(t, err)
}
