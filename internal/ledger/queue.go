package ledger

import (
	"context"
	"log/slog"
	"sync"
)

// writeQueue persists collection snapshots sequentially. Mutations enqueue
// the full snapshot and return immediately; a failed save is logged and
// swallowed, never retried, and never rolls back in-memory state. A full
// buffer drops the oldest pending snapshot rather than blocking the caller,
// which may be holding its store's mutex.
type writeQueue struct {
	key       string
	persister Persister

	mu       sync.Mutex
	closed   bool
	requests chan []byte
	done     chan struct{}
}

func newWriteQueue(p Persister, key string) *writeQueue {
	q := &writeQueue{
		key:       key,
		persister: p,
		requests:  make(chan []byte, 64),
		done:      make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *writeQueue) run() {
	defer close(q.done)

	ctx := context.Background()
	for payload := range q.requests {
		if err := q.persister.Save(ctx, q.key, payload); err != nil {
			slog.ErrorContext(ctx, "Failed to persist collection",
				"key", q.key,
				"bytes", len(payload),
				"error", err)
		}
	}
}

// enqueue hands a snapshot to the queue. Saves happen in enqueue order, so
// the last snapshot always wins at the storage layer. enqueue never blocks:
// each payload is the complete collection, so when the buffer is full the
// oldest pending snapshot is superseded by this one and can be discarded.
func (q *writeQueue) enqueue(payload []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	for {
		select {
		case q.requests <- payload:
			return
		default:
		}
		select {
		case <-q.requests:
		default:
		}
	}
}

// Close drains pending saves and stops the queue.
func (q *writeQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.requests)
	q.mu.Unlock()

	<-q.done
}
