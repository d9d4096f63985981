package notify

import (
	"context"
	"sync"
)

// Bus is the in-process channel: synchronous fan-out to subscribers in
// the same process. It satisfies Notifier on its own, which is what
// tests use.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]func())}
}

func (b *Bus) Publish(_ context.Context, topic string) {
	b.publishLocal(topic)
}

func (b *Bus) publishLocal(topic string) {
	// Snapshot under the read lock so a callback may unsubscribe itself.
	b.mu.RLock()
	fns := make([]func(), 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

func (b *Bus) Subscribe(topic string, fn func()) func() {
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]func())
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], id)
			b.mu.Unlock()
		})
	}
}
