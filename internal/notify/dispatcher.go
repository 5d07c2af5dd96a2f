package notify

import (
	"context"
	"sync"
)

// Dispatcher routes each notification to the sinks subscribed to its kind,
// or to the fallback when nobody is.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Kind][]Sink
	fallback Sink
}

func NewDispatcher(fallback Sink) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Kind][]Sink),
		fallback: fallback,
	}
}

func (d *Dispatcher) On(kind Kind, s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], s)
}

func (d *Dispatcher) Deliver(ctx context.Context, n Notification) error {
	d.mu.RLock()
	sinks := append([]Sink(nil), d.handlers[n.Kind]...)
	d.mu.RUnlock()

	if len(sinks) == 0 {
		if d.fallback == nil {
			return nil
		}
		return d.fallback.Deliver(ctx, n)
	}

	var firstErr error
	for _, s := range sinks {
		if err := s.Deliver(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
