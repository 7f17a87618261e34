// Package oplog is the write-operation log collaborator referenced by
// spec §6: the external source of `model.Operation` entries the engine
// applies in strict per-collection offset order. The engine core only
// ever depends on the Source interface; a real deployment wires in a
// provider backed by a durable queue. Grounded on the teacher's
// services/interfaces.go pattern of a small interface fronting an
// injected external collaborator, generalized from the teacher's document
// store to this engine's operation stream.
package oplog

import (
	"context"

	"github.com/gcbaptista/docretrieval/model"
)

// Source delivers write-operation log entries for one collection, in
// ascending Offset order, starting strictly after `after`. Implementations
// may block until new operations arrive; Next returns ctx.Err() when ctx
// is cancelled.
type Source interface {
	Next(ctx context.Context, collection model.CollectionId, after model.Offset) (model.Operation, error)
}

// InMemory is a Source backed by a plain in-process slice, useful for
// tests and for driving the demo HTTP surface without a real queue.
type InMemory struct {
	ops map[model.CollectionId][]model.Operation
}

// NewInMemory creates an empty in-memory operation log.
func NewInMemory() *InMemory {
	return &InMemory{ops: make(map[model.CollectionId][]model.Operation)}
}

// Append adds op to collection's log. Operations must be appended in
// ascending Offset order; Append panics otherwise, since a log that isn't
// monotonic indicates a producer bug rather than a runtime condition to
// recover from.
func (m *InMemory) Append(collection model.CollectionId, op model.Operation) {
	ops := m.ops[collection]
	if len(ops) > 0 && op.Offset <= ops[len(ops)-1].Offset {
		panic("oplog: operations must be appended in strictly ascending offset order")
	}
	m.ops[collection] = append(ops, op)
}

// Next returns the first buffered operation for collection whose Offset is
// greater than after, or context.Canceled/context.DeadlineExceeded if none
// is available before ctx is done.
func (m *InMemory) Next(ctx context.Context, collection model.CollectionId, after model.Offset) (model.Operation, error) {
	for _, op := range m.ops[collection] {
		if op.Offset > after {
			return op, nil
		}
	}
	<-ctx.Done()
	return model.Operation{}, ctx.Err()
}
