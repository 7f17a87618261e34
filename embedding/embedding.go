// Package embedding is the external embedding collaborator referenced by
// spec §6: it turns text into vectors for a named model. The retrieval
// engine core only ever calls the Embedder interface; a real deployment
// wires in a provider backed by a model server. Grounded on the teacher's
// external-collaborator style for services it doesn't own
// (services/interfaces.go's DocumentStore), generalized to this engine's
// embedding contract.
package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gcbaptista/docretrieval/internal/apperrors"
)

// Embedder is the interface the collection index consumes.
type Embedder interface {
	// Dimensions returns the vector width produced for model.
	Dimensions(model string) (int, error)

	// EmbedQuery embeds each text under model, returning one vector per
	// input text in the same order.
	EmbedQuery(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// Deterministic is a stub Embedder useful for tests and local development:
// it hashes each input string into a fixed-width vector so the same text
// always embeds to the same vector, without calling out to a real model
// server.
type Deterministic struct {
	dims map[string]int
}

// NewDeterministic builds a stub embedder where each named model has the
// given vector width.
func NewDeterministic(dims map[string]int) *Deterministic {
	copied := make(map[string]int, len(dims))
	for k, v := range dims {
		copied[k] = v
	}
	return &Deterministic{dims: copied}
}

func (d *Deterministic) Dimensions(model string) (int, error) {
	n, ok := d.dims[model]
	if !ok {
		return 0, fmt.Errorf("%w: model %q", apperrors.ErrEmbeddingUnavailable, model)
	}
	return n, nil
}

func (d *Deterministic) EmbedQuery(_ context.Context, model string, texts []string) ([][]float32, error) {
	dims, err := d.Dimensions(model)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashEmbed(text, dims)
	}
	return out, nil
}

func hashEmbed(text string, dims int) []float32 {
	vec := make([]float32, dims)
	var h uint32 = 2166136261
	for i := 0; i < len(text); i++ {
		h ^= uint32(text[i])
		h *= 16777619
		vec[i%dims] += float32(h%997) / 997
	}
	return vec
}

// batchRequest is one pending EmbedQuery call waiting to be folded into the
// next batch.
type batchRequest struct {
	model  string
	texts  []string
	result chan batchResult
}

type batchResult struct {
	vectors [][]float32
	err     error
}

// Batcher wraps an Embedder, coalescing calls for the same model within a
// linger window into one upstream request (spec §5's "batches by model
// with a maximum batch size and a maximum linger time"). Inputs beyond the
// configured batch size simply trigger an immediate flush rather than
// blocking indefinitely.
type Batcher struct {
	next       Embedder
	batchSize  int
	linger     time.Duration
	mu         sync.Mutex
	pending    map[string][]batchRequest
	flushTimer map[string]*time.Timer
}

// NewBatcher wraps next with model-keyed batching.
func NewBatcher(next Embedder, batchSize int, linger time.Duration) *Batcher {
	return &Batcher{
		next:       next,
		batchSize:  batchSize,
		linger:     linger,
		pending:    make(map[string][]batchRequest),
		flushTimer: make(map[string]*time.Timer),
	}
}

func (b *Batcher) Dimensions(model string) (int, error) { return b.next.Dimensions(model) }

// EmbedQuery enqueues texts under model and blocks until the batch
// containing this request has been embedded.
func (b *Batcher) EmbedQuery(ctx context.Context, model string, texts []string) ([][]float32, error) {
	req := batchRequest{model: model, texts: texts, result: make(chan batchResult, 1)}

	b.mu.Lock()
	b.pending[model] = append(b.pending[model], req)
	count := 0
	for _, r := range b.pending[model] {
		count += len(r.texts)
	}
	if count >= b.batchSize {
		b.flushLocked(model)
	} else if b.flushTimer[model] == nil {
		b.flushTimer[model] = time.AfterFunc(b.linger, func() {
			b.mu.Lock()
			b.flushLocked(model)
			b.mu.Unlock()
		})
	}
	b.mu.Unlock()

	select {
	case res := <-req.result:
		return res.vectors, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// flushLocked must be called with b.mu held. It drains the pending batch
// for model, calls the wrapped Embedder once, and fans the results back
// out to each waiting caller.
func (b *Batcher) flushLocked(model string) {
	reqs := b.pending[model]
	delete(b.pending, model)
	if timer, ok := b.flushTimer[model]; ok {
		timer.Stop()
		delete(b.flushTimer, model)
	}
	if len(reqs) == 0 {
		return
	}

	var allTexts []string
	for _, r := range reqs {
		allTexts = append(allTexts, r.texts...)
	}

	go func() {
		vectors, err := b.next.EmbedQuery(context.Background(), model, allTexts)
		offset := 0
		for _, r := range reqs {
			if err != nil {
				r.result <- batchResult{err: err}
				continue
			}
			r.result <- batchResult{vectors: vectors[offset : offset+len(r.texts)]}
			offset += len(r.texts)
		}
	}()
}
