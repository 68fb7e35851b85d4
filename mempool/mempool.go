package mempool

import (
	"sync"

	"minechain/monitoring"
)

// Queue provides a thread-safe FIFO of pending entries. Queue order is
// insertion order; entry ids are used only for correlation and removal.
type Queue struct {
	mu      sync.Mutex
	entries []*PendingEntry
}

// NewQueue creates a new, empty pending queue.
func NewQueue() *Queue {
	return &Queue{
		entries: make([]*PendingEntry, 0),
	}
}

// Push appends an entry at the tail.
func (q *Queue) Push(e *PendingEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
	monitoring.SetPendingQueueSize(len(q.entries))
}

// PushFront reinserts an entry at the head, preserving its original
// priority after an aborted construction.
func (q *Queue) PushFront(e *PendingEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append([]*PendingEntry{e}, q.entries...)
	monitoring.SetPendingQueueSize(len(q.entries))
}

// Pop removes and returns the head entry, or nil when the queue is empty.
func (q *Queue) Pop() *PendingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	monitoring.SetPendingQueueSize(len(q.entries))
	return head
}

// RemoveByID removes the first entry whose id matches and reports whether
// one was found.
func (q *Queue) RemoveByID(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.id == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			monitoring.SetPendingQueueSize(len(q.entries))
			return true
		}
	}
	return false
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Snapshot returns a copy of the queued entries in order.
func (q *Queue) Snapshot() []*PendingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*PendingEntry, len(q.entries))
	copy(out, q.entries)
	return out
}
