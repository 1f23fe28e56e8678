package queue

import (
	"context"
)

// Publisher sends task events to a broker
type Publisher interface {
	// Publish sends one event. Implementations must be safe for use by a single goroutine.
	Publish(ctx context.Context, msg *Message) error

	// Close closes the broker connection
	Close() error

	// HealthCheck verifies the broker connection is healthy
	HealthCheck(ctx context.Context) error
}

// Subscriber streams task events from a broker
type Subscriber interface {
	// Consume binds a private queue with the routing pattern and delivers events until ctx is cancelled.
	// The caller is responsible for acknowledging each delivery.
	Consume(ctx context.Context, pattern string) (<-chan *Delivery, <-chan error, error)
}
