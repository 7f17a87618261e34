package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicEmbedQueryIsStable(t *testing.T) {
	d := NewDeterministic(map[string]int{"m": 8})

	a, err := d.EmbedQuery(context.Background(), "m", []string{"hello"})
	require.NoError(t, err)
	b, err := d.EmbedQuery(context.Background(), "m", []string{"hello"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDeterministicUnknownModelErrors(t *testing.T) {
	d := NewDeterministic(map[string]int{"m": 8})
	_, err := d.Dimensions("nope")
	assert.Error(t, err)
}

func TestBatcherCoalescesRequests(t *testing.T) {
	d := NewDeterministic(map[string]int{"m": 4})
	b := NewBatcher(d, 100, 20*time.Millisecond)

	results := make(chan [][]float32, 2)
	go func() {
		v, err := b.EmbedQuery(context.Background(), "m", []string{"a"})
		require.NoError(t, err)
		results <- v
	}()
	go func() {
		v, err := b.EmbedQuery(context.Background(), "m", []string{"b"})
		require.NoError(t, err)
		results <- v
	}()

	first := <-results
	second := <-results
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestBatcherFlushesImmediatelyAtCapacity(t *testing.T) {
	d := NewDeterministic(map[string]int{"m": 4})
	b := NewBatcher(d, 1, time.Hour)

	v, err := b.EmbedQuery(context.Background(), "m", []string{"a"})
	require.NoError(t, err)
	assert.Len(t, v, 1)
}
