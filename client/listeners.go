package client

import (
	"fmt"
	"sync"

	"github.com/fuad-daoud/ferrisgo/events"
	"github.com/fuad-daoud/ferrisgo/logger/dlog"
)

// EventListener receives every event the client emits. Use NewListenerFunc
// to subscribe to a single event type.
type EventListener interface {
	OnEvent(event events.Event)
}

type listenerFunc[E events.Event] struct {
	f func(e E)
}

func (l listenerFunc[E]) OnEvent(event events.Event) {
	if e, ok := event.(E); ok {
		l.f(e)
	}
}

// NewListenerFunc wraps a function into a listener that only fires for
// events of type E.
func NewListenerFunc[E events.Event](f func(e E)) EventListener {
	return listenerFunc[E]{f: f}
}

// eventManager decouples event delivery from the gateway read loop: the
// dispatcher enqueues, a single goroutine drains. Listener panics are
// recovered and surfaced as an Error event so one bad handler cannot take
// the connection down.
type eventManager struct {
	listeners []EventListener
	ch        chan events.Event
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

func newEventManager(listeners []EventListener) *eventManager {
	em := &eventManager{
		listeners: listeners,
		ch:        make(chan events.Event, 256),
		done:      make(chan struct{}),
	}
	go em.run()
	return em
}

func (em *eventManager) run() {
	defer close(em.done)
	for event := range em.ch {
		em.deliver(event)
	}
}

func (em *eventManager) deliver(event events.Event) {
	for _, l := range em.listeners {
		em.dispatchTo(l, event)
	}
}

func (em *eventManager) dispatchTo(l EventListener, event events.Event) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("listener panic on %s: %v", event.EventType(), r)
			dlog.Error("Recovered listener panic", "event", event.EventType(), "panic", r)
			if _, isErr := event.(events.Error); isErr {
				// do not recurse on a panicking error listener
				return
			}
			em.deliver(events.Error{Err: err})
		}
	}()
	l.OnEvent(event)
}

// emit enqueues for the delivery goroutine. The buffer absorbs bursts; when
// a slow listener fills it the enqueue blocks until the worker catches up,
// keeping delivery in cache-application order. Events emitted after close
// are dropped.
func (em *eventManager) emit(event events.Event) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	if em.closed {
		dlog.Debug("Event dropped after close", "event", event.EventType())
		return
	}
	em.ch <- event
}

// close stops intake, drains remaining events and waits for the delivery
// goroutine to finish.
func (em *eventManager) close() {
	em.mu.Lock()
	if em.closed {
		em.mu.Unlock()
		return
	}
	em.closed = true
	close(em.ch)
	em.mu.Unlock()
	<-em.done
}
