package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultQueue = 32

// Broker delivers every published event to every live subscriber.
// Slow subscribers lose events instead of blocking the publisher.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]struct{}
	queue  int
	closed bool
}

// NewBroker returns a broker whose subscriber channels hold 32 events.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerSize[T](defaultQueue)
}

// NewBrokerSize returns a broker with the given per-subscriber queue length.
func NewBrokerSize[T any](queue int) *Broker[T] {
	if queue < 1 {
		queue = 1
	}
	return &Broker[T]{
		subs:  make(map[chan Event[T]]struct{}),
		queue: queue,
	}
}

// Subscribe registers a channel that is closed when ctx ends or the broker closes.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event[T], b.queue)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.drop(ch)
	}()
	return ch
}

func (b *Broker[T]) drop(ch chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

// Publish fans data out without blocking.
func (b *Broker[T]) Publish(kind Kind, data T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	ev := Event[T]{Kind: kind, Data: data, At: time.Now()}
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = map[chan Event[T]]struct{}{}
}

// Subscribers reports how many subscriptions are live.
func (b *Broker[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
