// Package ingest is the per-collection serialized apply dispatcher (spec
// §2 component 11's "ingest" half): it takes `model.Operation` entries
// passed to Apply and applies them to the right collection, one
// operation at a time per collection, across a bounded pool of worker
// slots shared by every collection. Grounded on the teacher's
// internal/jobs/manager.go: a worker-count channel bounding concurrency,
// a uuid-tagged ledger of past work, and the same acquire-slot/launch-
// goroutine/release-slot shape — generalized from "run a reindex job" to
// "apply one write-operation log entry".
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/docretrieval/internal/apperrors"
	"github.com/gcbaptista/docretrieval/internal/registry"
	"github.com/gcbaptista/docretrieval/model"
)

// LedgerStatus tags the outcome of one applied operation.
type LedgerStatus string

const (
	LedgerApplied LedgerStatus = "applied"
	LedgerFailed  LedgerStatus = "failed"
)

// LedgerEntry records one apply attempt, for observability and for
// diagnosing a collection whose apply loop stopped advancing.
type LedgerEntry struct {
	ID         string
	Collection model.CollectionId
	Offset     model.Offset
	Status     LedgerStatus
	Err        error
	AppliedAt  time.Time
}

// Dispatcher applies write-operation log entries to collections in a
// registry, never running two operations for the same collection
// concurrently (spec §4.6 requires strict per-collection offset order),
// while bounding total cross-collection concurrency via a worker pool.
type Dispatcher struct {
	registry *registry.Registry

	workers chan struct{}

	collectionLocksMu sync.Mutex
	collectionLocks   map[model.CollectionId]*sync.Mutex

	ledgerMu sync.RWMutex
	ledger   []LedgerEntry
}

// NewDispatcher builds a Dispatcher bounding concurrent applies to
// maxWorkers across every collection in reg.
func NewDispatcher(reg *registry.Registry, maxWorkers int) *Dispatcher {
	return &Dispatcher{
		registry:        reg,
		workers:         make(chan struct{}, maxWorkers),
		collectionLocks: make(map[model.CollectionId]*sync.Mutex),
	}
}

func (d *Dispatcher) lockFor(id model.CollectionId) *sync.Mutex {
	d.collectionLocksMu.Lock()
	defer d.collectionLocksMu.Unlock()
	l, ok := d.collectionLocks[id]
	if !ok {
		l = &sync.Mutex{}
		d.collectionLocks[id] = l
	}
	return l
}

// Apply routes op to its collection and applies it, blocking until a
// worker slot is free or ctx is cancelled. It returns a ledger entry id
// for later lookup via Ledger.
func (d *Dispatcher) Apply(ctx context.Context, op model.Operation) (string, error) {
	select {
	case d.workers <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-d.workers }()

	lock := d.lockFor(op.Collection)
	lock.Lock()
	defer lock.Unlock()

	err := d.applyLocked(op)

	entry := LedgerEntry{
		ID:         uuid.New().String(),
		Collection: op.Collection,
		Offset:     op.Offset,
		AppliedAt:  time.Now(),
	}
	if err != nil {
		entry.Status = LedgerFailed
		entry.Err = err
		log.Printf("ingest: failed to apply operation at offset %d for collection %q: %v", op.Offset, op.Collection, err)
	} else {
		entry.Status = LedgerApplied
	}

	d.ledgerMu.Lock()
	d.ledger = append(d.ledger, entry)
	d.ledgerMu.Unlock()

	return entry.ID, err
}

func (d *Dispatcher) applyLocked(op model.Operation) error {
	switch op.Kind {
	case model.OpCreateCollection:
		_, err := d.registry.Create(op.Collection)
		if err != nil && !errors.Is(err, apperrors.ErrCollectionExists) {
			return err
		}
		return nil

	case model.OpCreateField:
		c, err := d.registry.Get(op.Collection)
		if err != nil {
			return err
		}
		return c.ApplyCreateField(op.Offset, op.Field)

	case model.OpInsertDocument:
		// Document bytes are forwarded to the external document store,
		// not indexed; the engine only needs the offset to advance, which
		// happens as a side effect of the next OpIndex for this document.
		return nil

	case model.OpIndex:
		c, err := d.registry.Get(op.Collection)
		if err != nil {
			return err
		}
		return c.ApplyIndex(op.Offset, op.DocID, op.Field.ID, op.FieldOp)

	default:
		return fmt.Errorf("%w: unrecognized op kind %v", apperrors.ErrLogApply, op.Kind)
	}
}

// Ledger returns every recorded apply attempt, oldest first.
func (d *Dispatcher) Ledger() []LedgerEntry {
	d.ledgerMu.RLock()
	defer d.ledgerMu.RUnlock()
	out := make([]LedgerEntry, len(d.ledger))
	copy(out, d.ledger)
	return out
}
