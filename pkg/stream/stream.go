// Package stream abstracts the event transport: inbound action and
// registration topics, the recompute queue, and the outbound
// recommendation topic.
package stream

import "context"

// Handler consumes one raw message. A non-nil error is logged by the
// consumer and the message skipped; redelivery, if any, is the
// transport's concern (at-least-once semantics).
type Handler func(ctx context.Context, value []byte) error

// Publisher sends messages onto a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, value []byte) error
	Close() error
}

// Consumer delivers a topic's messages, one at a time in partition order,
// until the context is cancelled.
type Consumer interface {
	Consume(ctx context.Context, topics []string, handler Handler) error
}
