// Package events fans device status snapshots out to stream subscribers.
package events

import (
	"sync"

	"github.com/micro-nova/lcdb-go/internal/lcdb"
)

const subBufferSize = 8

// Bus is a non-blocking publish-subscribe bus of lcdb.Status snapshots.
// A subscriber that falls behind loses its oldest queued snapshots, so the
// newest one is always delivered.
type Bus struct {
	mu   sync.Mutex
	subs map[string]chan lcdb.Status
	last *lcdb.Status
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]chan lcdb.Status),
	}
}

// Subscribe registers id and returns its channel. If a snapshot has been
// published already it is queued immediately. Call Unsubscribe when done.
func (b *Bus) Subscribe(id string) <-chan lcdb.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan lcdb.Status, subBufferSize)
	if b.last != nil {
		ch <- *b.last
	}
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers st to every subscriber without blocking. It is safe to
// pass as an lcdb.WithNotify callback.
func (b *Bus) Publish(st lcdb.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = &st
	for _, ch := range b.subs {
		select {
		case ch <- st:
		default:
			// full: discard the oldest to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

// Last returns the most recently published snapshot.
func (b *Bus) Last() (lcdb.Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return lcdb.Status{}, false
	}
	return *b.last, true
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
