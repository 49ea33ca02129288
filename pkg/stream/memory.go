package stream

import (
	"context"
	"log"
	"sync"
)

// Bus is an in-memory transport implementing both Publisher and Consumer.
// It backs tests and the in-process recompute queue. Publish is
// fire-and-forget: a subscriber with a full buffer drops the message
// rather than stalling the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]chan []byte
	buffer int
}

// NewBus constructs a bus whose subscriber channels hold buffer messages.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{subs: make(map[string][]chan []byte), buffer: buffer}
}

// Subscribe registers a new channel for a topic.
func (b *Bus) Subscribe(topic string) <-chan []byte {
	ch := make(chan []byte, b.buffer)
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers to every current subscriber without blocking.
func (b *Bus) Publish(_ context.Context, topic string, value []byte) error {
	b.mu.RLock()
	subs := append([]chan []byte(nil), b.subs[topic]...)
	b.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- value:
		default:
			log.Printf("[stream] dropping message on %s: subscriber buffer full", topic)
		}
	}
	return nil
}

// Consume runs the handler over every message on the topics until the
// context is cancelled.
func (b *Bus) Consume(ctx context.Context, topics []string, handler Handler) error {
	var wg sync.WaitGroup
	for _, topic := range topics {
		ch := b.Subscribe(topic)
		wg.Add(1)
		go func(topic string, ch <-chan []byte) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case value := <-ch:
					if err := handler(ctx, value); err != nil {
						log.Printf("[stream] handler error on %s: %v", topic, err)
					}
				}
			}
		}(topic, ch)
	}
	wg.Wait()
	return ctx.Err()
}

// Close is a no-op; subscriber goroutines exit with their contexts.
func (b *Bus) Close() error { return nil }
