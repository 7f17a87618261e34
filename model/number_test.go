package model

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumberRejectsNaN(t *testing.T) {
	_, err := NewNumber(math.NaN())
	assert.Error(t, err)
}

func TestNumberCompare(t *testing.T) {
	a, _ := NewNumber(1)
	b, _ := NewNumber(2)
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestNumberGobRoundTrip(t *testing.T) {
	original, err := NewNumber(3.14159)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(original))

	var decoded Number
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))

	assert.Equal(t, original.Float64(), decoded.Float64())
}

func TestNumberPredBounds(t *testing.T) {
	five, _ := NewNumber(5)
	ten, _ := NewNumber(10)

	tests := []struct {
		name    string
		pred    NumberPred
		wantMin Number
		wantMax Number
	}{
		{"equal", NumberPred{Kind: NumberEqual, A: five}, five, five},
		{"between", NumberPred{Kind: NumberBetween, A: five, B: ten}, five, ten},
		{"greater or equal", NumberPred{Kind: NumberGreaterOrEqual, A: five}, five, MaxNumber},
		{"less or equal", NumberPred{Kind: NumberLessOrEqual, A: five}, MinNumber, five},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := tt.pred.Bounds()
			assert.Equal(t, tt.wantMin, min)
			assert.Equal(t, tt.wantMax, max)
		})
	}
}

func TestNumberPredBoundsStrictInequalities(t *testing.T) {
	five, _ := NewNumber(5)

	gtPred := NumberPred{Kind: NumberGreaterThan, A: five}
	min, max := gtPred.Bounds()
	assert.True(t, min.Compare(five) > 0)
	assert.Equal(t, MaxNumber, max)

	ltPred := NumberPred{Kind: NumberLessThan, A: five}
	min, max = ltPred.Bounds()
	assert.Equal(t, MinNumber, min)
	assert.True(t, max.Compare(five) < 0)
}
