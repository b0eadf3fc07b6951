package service

import (
	"sync"

	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

// ChangeEventBus fans database change events out to in-process subscribers.
//
// Publish never blocks: slow subscribers drop events. The dispatcher's
// cursor advancement must not depend on subscriber consumption.
type ChangeEventBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan models.DatabaseChangeEvent
	seq  uint64
}

// NewChangeEventBus builds an empty bus. It owns no goroutines.
func NewChangeEventBus() *ChangeEventBus {
	return &ChangeEventBus{subs: map[uint64]chan models.DatabaseChangeEvent{}}
}

// Publish delivers the event to every subscriber without blocking.
func (b *ChangeEventBus) Publish(event models.DatabaseChangeEvent) {
	b.mu.RLock()
	channels := make([]chan models.DatabaseChangeEvent, 0, len(b.subs))
	for _, ch := range b.subs {
		channels = append(channels, ch)
	}
	b.mu.RUnlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a buffered subscriber channel and returns it with an
// unsubscribe func. Unsubscribing does not close the channel; senders may
// still be in flight.
func (b *ChangeEventBus) Subscribe(buffer int) (<-chan models.DatabaseChangeEvent, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan models.DatabaseChangeEvent, buffer)

	b.mu.Lock()
	b.seq++
	id := b.seq
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
	return ch, unsubscribe
}
