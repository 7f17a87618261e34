package uncommitted

import (
	"testing"

	"github.com/gcbaptista/docretrieval/model"
	"github.com/stretchr/testify/assert"
)

func TestBoolFieldPartition(t *testing.T) {
	f := NewBoolField()
	f.Insert(1, true)
	f.Insert(2, false)
	f.Insert(3, true)

	trueSet := f.Filter(true)
	falseSet := f.Filter(false)

	assert.True(t, trueSet.Contains(1))
	assert.True(t, trueSet.Contains(3))
	assert.True(t, falseSet.Contains(2))

	intersection := trueSet.Clone()
	intersection.And(falseSet)
	assert.True(t, intersection.IsEmpty(), "true and false sets must never overlap (P5)")
}

func TestBoolFieldReinsertMovesDocument(t *testing.T) {
	f := NewBoolField()
	f.Insert(1, true)
	f.Insert(1, false)

	assert.False(t, f.Filter(true).Contains(1))
	assert.True(t, f.Filter(false).Contains(1))
}

func TestBoolFieldCounts(t *testing.T) {
	f := NewBoolField()
	f.Insert(1, true)
	f.Insert(2, true)
	f.Insert(3, false)

	trueCount, falseCount := f.Counts()
	assert.Equal(t, uint64(2), trueCount)
	assert.Equal(t, uint64(1), falseCount)
}

func TestBoolFieldTakeResetsState(t *testing.T) {
	f := NewBoolField()
	f.Insert(1, true)

	trueDocs, _ := f.Take()
	assert.True(t, trueDocs.Contains(uint32(model.DocumentId(1))))

	trueCount, falseCount := f.Counts()
	assert.Zero(t, trueCount)
	assert.Zero(t, falseCount)
}
