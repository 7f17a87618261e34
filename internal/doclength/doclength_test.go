package doclength

import (
	"path/filepath"
	"testing"

	"github.com/gcbaptista/docretrieval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownDocumentReturnsDefaultLength(t *testing.T) {
	s := New()
	assert.Equal(t, uint32(DefaultLength), s.Length(model.DocumentId(42)))
}

func TestInsertTracksGlobalInfo(t *testing.T) {
	s := New()
	s.Insert(1, 10)
	s.Insert(2, 20)

	info := s.GlobalInfo()
	assert.Equal(t, uint64(2), info.NumDocuments)
	assert.Equal(t, uint64(30), info.TotalLength)
	assert.Equal(t, 15.0, info.AvgDocLength())
}

func TestInsertOverwriteAdjustsTotals(t *testing.T) {
	s := New()
	s.Insert(1, 10)
	s.Insert(1, 30)

	info := s.GlobalInfo()
	assert.Equal(t, uint64(1), info.NumDocuments)
	assert.Equal(t, uint64(30), info.TotalLength)
}

func TestAvgDocLengthEmptyStoreIsZero(t *testing.T) {
	s := New()
	assert.Equal(t, 0.0, s.GlobalInfo().AvgDocLength())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := New()
	s.Insert(1, 5)
	s.Insert(2, 15)

	path := filepath.Join(t.TempDir(), "lengths.bin")
	require.NoError(t, s.Save(path))

	reopened, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), reopened.Length(1))
	assert.Equal(t, uint32(DefaultLength), reopened.Length(99))
	assert.Equal(t, uint64(2), reopened.GlobalInfo().NumDocuments)
}
