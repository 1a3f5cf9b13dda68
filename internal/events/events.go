// Package events carries change notifications out of the entity stores.
//
// Stores publish a Change after every applied mutation; read-side
// collaborators (screens, report views) subscribe instead of polling.
package events

import (
	"context"
	"sync"
	"time"
)

type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Change describes one applied mutation on a collection.
type Change struct {
	Collection string    `json:"collection"`
	Op         Op        `json:"op"`
	IDs        []string  `json:"ids"`
	At         time.Time `json:"at"`
}

// Notifier delivers changes to interested parties. Implementations must not
// block the mutating caller.
type Notifier interface {
	Notify(ctx context.Context, change Change)
}

// Bus is an in-process Notifier that fans changes out to subscribers.
type Bus struct {
	mu     sync.Mutex
	subs   []chan Change
	closed bool
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a channel receiving future changes. A slow subscriber
// misses changes rather than stalling the stores.
func (b *Bus) Subscribe(buffer int) <-chan Change {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Notify implements Notifier. Delivery is best-effort and never blocks.
func (b *Bus) Notify(_ context.Context, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		select {
		case sub <- change:
		default:
		}
	}
}

// Close stops delivery and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}
