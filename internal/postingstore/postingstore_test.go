package postingstore

import (
	"path/filepath"
	"testing"

	"github.com/gcbaptista/docretrieval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndGet(t *testing.T) {
	s := New()
	s.Insert(1, []Entry{{DocID: 10, Positions: model.Positions{0, 5}}})

	entries, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, model.DocumentId(10), entries[0].DocID)
}

func TestGetMissingPostingID(t *testing.T) {
	s := New()
	_, ok := s.Get(99)
	assert.False(t, ok)
}

func TestMaxPostingIDEmptyIsZero(t *testing.T) {
	s := New()
	assert.Equal(t, uint64(0), s.MaxPostingID())
}

func TestMaxPostingIDTracksHighest(t *testing.T) {
	s := New()
	s.Insert(3, nil)
	s.Insert(7, nil)
	s.Insert(2, nil)
	assert.Equal(t, uint64(7), s.MaxPostingID())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := New()
	s.Insert(1, []Entry{{DocID: 1, Positions: model.Positions{1, 2, 3}}})
	s.Insert(2, []Entry{{DocID: 2, Positions: model.Positions{0}}})

	path := filepath.Join(t.TempDir(), "postings.bin")
	require.NoError(t, s.Save(path))

	reopened, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), reopened.MaxPostingID())

	entries, ok := reopened.Get(2)
	require.True(t, ok)
	assert.Equal(t, model.Positions{0}, entries[0].Positions)
}
