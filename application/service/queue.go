// Package service wires the domain together: the Indexer that keeps the
// embedding index in sync with the journal, and the Memory facade that
// answers searches and mines themes.
package service

import (
	"sync"

	"github.com/daybook-dev/daybook/domain/memory"
)

// refQueue is the in-memory half of the work queue: an ordered set of
// entity references. Order is FIFO by first insertion; re-adding a queued
// ref is a no-op. All methods are safe for concurrent use.
type refQueue struct {
	mu      sync.Mutex
	order   []memory.Ref
	present map[string]struct{}
}

func newRefQueue() *refQueue {
	return &refQueue{present: make(map[string]struct{})}
}

// Add appends ref unless it is already queued. Returns true when the queue
// changed.
func (q *refQueue) Add(ref memory.Ref) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := ref.String()
	if _, ok := q.present[key]; ok {
		return false
	}
	q.present[key] = struct{}{}
	q.order = append(q.order, ref)
	return true
}

// Remove deletes ref from the queue. Returns true when the queue changed.
func (q *refQueue) Remove(ref memory.Ref) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := ref.String()
	if _, ok := q.present[key]; !ok {
		return false
	}
	delete(q.present, key)
	for i, queued := range q.order {
		if queued.String() == key {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

// Items returns the queued references in FIFO order.
func (q *refQueue) Items() []memory.Ref {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := make([]memory.Ref, len(q.order))
	copy(items, q.order)
	return items
}

// Len returns the number of queued references.
func (q *refQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Reset replaces the queue contents, deduplicating while preserving the
// order of first appearance.
func (q *refQueue) Reset(refs []memory.Ref) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.order = q.order[:0]
	q.present = make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		key := ref.String()
		if _, ok := q.present[key]; ok {
			continue
		}
		q.present[key] = struct{}{}
		q.order = append(q.order, ref)
	}
}
