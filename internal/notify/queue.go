package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"crm-app/internal/logger"
	"crm-app/internal/metrics"
)

var ErrQueueClosed = errors.New("notification queue closed")

const drainTimeout = 5 * time.Second

// Publisher is what guards and validators depend on.
type Publisher interface {
	Publish(n Notification) bool
}

// Sink receives notifications from the single queue listener.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Deliver(ctx context.Context, n Notification) error { return f(ctx, n) }

// Queue replaces ad-hoc global broadcast events with one typed channel and
// exactly one consumer.
type Queue struct {
	ch      chan Notification
	log     logger.Logger
	metrics metrics.AccessMetrics

	mu     sync.RWMutex
	closed bool
}

func NewQueue(size int, log logger.Logger, m metrics.AccessMetrics) *Queue {
	if size <= 0 {
		size = 256
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &Queue{
		ch:      make(chan Notification, size),
		log:     log.Component("notify"),
		metrics: m,
	}
}

// Publish never blocks. It returns false when the notification was dropped.
func (q *Queue) Publish(n Notification) bool {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}

	select {
	case q.ch <- n:
		return true
	default:
		q.metrics.IncNotificationDropped(string(n.Kind))
		q.log.Warn("notification queue full, dropping", map[string]interface{}{
			"kind":   n.Kind,
			"userId": n.UserID.String(),
		})
		return false
	}
}

// Run consumes the queue until ctx ends or the queue is closed. Delivery
// failures are logged and do not stop the listener. When ctx ends, whatever
// is already buffered is delivered before Run returns.
func (q *Queue) Run(ctx context.Context, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			q.drain(sink)
			return ctx.Err()
		case n, ok := <-q.ch:
			if !ok {
				return ErrQueueClosed
			}
			q.deliver(ctx, sink, n)
		}
	}
}

func (q *Queue) drain(sink Sink) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case n, ok := <-q.ch:
			if !ok {
				return
			}
			q.deliver(ctx, sink, n)
		default:
			return
		}
	}
}

func (q *Queue) deliver(ctx context.Context, sink Sink, n Notification) {
	if err := sink.Deliver(ctx, n); err != nil {
		q.log.Error("notification delivery failed", map[string]interface{}{
			"kind":   n.Kind,
			"userId": n.UserID.String(),
			"error":  err.Error(),
		})
	}
}

// Close stops accepting notifications. Run delivers what is still buffered
// and then returns ErrQueueClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
