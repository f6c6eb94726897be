// Package trash accumulates identifiers pending destructive removal and
// commits them in reconciled batches.
package trash

import (
	"context"
	"sync"

	"github.com/hpx/cull/internal/errors"
	"github.com/hpx/cull/internal/media"
)

// Queue is the pending-deletion set. Insertion order is preserved for batch
// ordering and duplicates are rejected. Nothing leaves the set except through
// a successful commit, reconciliation-confirmed ineligibility, or an explicit
// Remove (undo retracting a rejection).
type Queue struct {
	mu         sync.Mutex
	catalog    media.Catalog
	authority  media.DeletionAuthority
	batchSize  int
	pending    []string
	pendingSet map[string]bool

	// flushMu serializes batch submissions: at most one authority call is
	// in flight, and a flush triggered meanwhile queues behind it.
	flushMu sync.Mutex
}

// New creates an empty queue committing through authority and reconciling
// against catalog.
func New(catalog media.Catalog, authority media.DeletionAuthority, batchSize int) *Queue {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Queue{
		catalog:    catalog,
		authority:  authority,
		batchSize:  batchSize,
		pendingSet: make(map[string]bool),
	}
}

// Enqueue adds id to the pending set. Already-pending identifiers are a no-op.
func (q *Queue) Enqueue(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pendingSet[id] {
		return
	}
	q.pendingSet[id] = true
	q.pending = append(q.pending, id)
}

// Remove retracts id from the pending set, reporting whether it was present.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.pendingSet[id] {
		return false
	}
	delete(q.pendingSet, id)
	for i, p := range q.pending {
		if p == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	return true
}

// Pending returns a snapshot of the pending identifiers in insertion order.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, len(q.pending))
	copy(out, q.pending)
	return out
}

// Len returns the number of pending identifiers.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

// Reconcile drops pending identifiers that no longer exist in the catalog or
// are no longer eligible for removal (externally restored). It returns the
// surviving set in insertion order.
func (q *Queue) Reconcile() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	survivors := q.pending[:0:0]
	for _, id := range q.pending {
		if q.catalog.Exists(id) && q.catalog.CanRemove(id) {
			survivors = append(survivors, id)
			continue
		}
		delete(q.pendingSet, id)
	}
	q.pending = survivors

	out := make([]string, len(survivors))
	copy(out, survivors)
	return out
}

// Flush reconciles and submits the surviving identifiers to the deletion
// authority as one transactional batch. An empty queue (before or after
// reconciliation) is a no-op. On authority failure the attempted identifiers
// stay pending and the error is returned as AUTHORITY_FAILURE; the next flush
// trigger retries them. Flushes are serialized: a call made while a batch is
// in flight waits its turn.
func (q *Queue) Flush(ctx context.Context) error {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	if q.Len() == 0 {
		return nil
	}

	batch := q.Reconcile()
	if len(batch) == 0 {
		return nil
	}

	if err := q.authority.DeleteBatch(ctx, batch); err != nil {
		return errors.NewAuthorityFailure(err, len(batch))
	}

	// Clear exactly the submitted identifiers; anything enqueued during the
	// authority call stays pending for the next batch.
	q.mu.Lock()
	defer q.mu.Unlock()
	submitted := make(map[string]bool, len(batch))
	for _, id := range batch {
		submitted[id] = true
		delete(q.pendingSet, id)
	}
	remaining := q.pending[:0:0]
	for _, id := range q.pending {
		if !submitted[id] {
			remaining = append(remaining, id)
		}
	}
	q.pending = remaining
	return nil
}

// FlushIfDue runs Flush when an automatic trigger holds: the pending count
// reached the batch size, or the review window has just become empty.
func (q *Queue) FlushIfDue(ctx context.Context, windowEmpty bool) error {
	if q.Len() >= q.batchSize || (windowEmpty && q.Len() > 0) {
		return q.Flush(ctx)
	}
	return nil
}
