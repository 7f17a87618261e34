package registry

import (
	"testing"

	"github.com/gcbaptista/docretrieval/config"
	"github.com/gcbaptista/docretrieval/embedding"
	"github.com/gcbaptista/docretrieval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	settings := config.DefaultSettings(t.TempDir())
	embedder := embedding.NewDeterministic(map[string]int{"m": 4})
	r, err := Open(settings, embedder)
	require.NoError(t, err)
	return r
}

func TestCreateThenGetReturnsSameCollection(t *testing.T) {
	r := newTestRegistry(t)
	created, err := r.Create(model.CollectionId("widgets"))
	require.NoError(t, err)

	got, err := r.Get(model.CollectionId("widgets"))
	require.NoError(t, err)
	assert.Same(t, created, got)
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Create(model.CollectionId("widgets"))
	require.NoError(t, err)

	_, err = r.Create(model.CollectionId("widgets"))
	assert.Error(t, err)
}

func TestGetUnknownCollectionErrors(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Get(model.CollectionId("nope"))
	assert.Error(t, err)
}

func TestListReturnsEveryCreatedCollection(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Create(model.CollectionId("a"))
	require.NoError(t, err)
	_, err = r.Create(model.CollectionId("b"))
	require.NoError(t, err)

	ids := r.List()
	assert.Len(t, ids, 2)
}

func TestDeleteRemovesCollection(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Create(model.CollectionId("widgets"))
	require.NoError(t, err)

	require.NoError(t, r.Delete(model.CollectionId("widgets")))

	_, err = r.Get(model.CollectionId("widgets"))
	assert.Error(t, err)
}

func TestDeleteUnknownCollectionErrors(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Delete(model.CollectionId("nope"))
	assert.Error(t, err)
}

func TestOpenReloadsPreviouslyCreatedCollections(t *testing.T) {
	settings := config.DefaultSettings(t.TempDir())
	embedder := embedding.NewDeterministic(map[string]int{"m": 4})

	first, err := Open(settings, embedder)
	require.NoError(t, err)
	c, err := first.Create(model.CollectionId("widgets"))
	require.NoError(t, err)
	require.NoError(t, c.ApplyCreateField(1, model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText}))
	require.NoError(t, c.Commit())

	second, err := Open(settings, embedder)
	require.NoError(t, err)
	reopened, err := second.Get(model.CollectionId("widgets"))
	require.NoError(t, err)
	assert.Equal(t, model.Offset(1), reopened.Offset())
}

func TestCommitAllCommitsEveryCollection(t *testing.T) {
	r := newTestRegistry(t)
	for _, name := range []string{"a", "b"} {
		c, err := r.Create(model.CollectionId(name))
		require.NoError(t, err)
		require.NoError(t, c.ApplyCreateField(1, model.FieldMeta{ID: 1, Name: "title", Kind: model.FieldKindText}))
	}

	errs := r.CommitAll()
	assert.Empty(t, errs)
}
