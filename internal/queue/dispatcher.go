package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benvon/vizflow/internal/store"
	"go.uber.org/zap"
)

// DefaultBufferSize is the number of events held while the broker catches up
const DefaultBufferSize = 256

// Dispatcher forwards store events to a Publisher on its own goroutine. Events are
// dropped rather than blocking a store mutation.
type Dispatcher struct {
	publisher      Publisher
	buf            chan *Message
	logger         *zap.Logger
	source         string
	publishTimeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    atomic.Bool
	dropped   atomic.Int64
	published atomic.Int64
}

// NewDispatcher creates a dispatcher. Call Start before events arrive.
func NewDispatcher(publisher Publisher, bufferSize int, source string, logger *zap.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		publisher:      publisher,
		buf:            make(chan *Message, bufferSize),
		logger:         logger,
		source:         source,
		publishTimeout: 5 * time.Second,
	}
}

// Start runs the publish loop until Close is called
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for msg := range d.buf {
			d.publish(msg)
		}
	}()
}

func (d *Dispatcher) publish(msg *Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
	defer cancel()
	if err := d.publisher.Publish(ctx, msg); err != nil {
		d.dropped.Add(1)
		d.logger.Warn("task_event_publish_failed",
			zap.String("event_type", msg.Type),
			zap.String("task_id", msg.TaskID),
			zap.Error(err),
		)
		return
	}
	d.published.Add(1)
}

// HandleEvent is a store.Listener. It never blocks.
func (d *Dispatcher) HandleEvent(ev store.Event) {
	if d.closed.Load() {
		return
	}
	msg := NewMessage(ev, d.source)
	defer func() {
		// a concurrent Close may have closed the buffer
		if recover() != nil {
			d.dropped.Add(1)
		}
	}()
	select {
	case d.buf <- msg:
	default:
		d.dropped.Add(1)
		d.logger.Warn("task_event_dropped",
			zap.String("event_type", msg.Type),
			zap.String("task_id", msg.TaskID),
			zap.String("reason", "buffer_full"),
		)
	}
}

// Stats returns how many events were published and dropped
func (d *Dispatcher) Stats() (published, dropped int64) {
	return d.published.Load(), d.dropped.Load()
}

// Close stops accepting events and waits for buffered ones to be published or ctx to end
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.buf)
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
