package coordinator

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// defaultSubscriberBuffer is used when Subscribe is called with a non-positive size.
const defaultSubscriberBuffer = 100

// EventEmitter fans coordination events out to subscribers.
// Emit never blocks since the coordinator calls it while holding its mutex.
type EventEmitter struct {
	mu           sync.RWMutex
	subs         []chan models.Event
	closed       bool
	droppedCount atomic.Uint64
}

// NewEventEmitter creates an emitter with no subscribers.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{}
}

// Subscribe registers a new subscriber channel with the given buffer size.
// Subscribing after Close returns an already closed channel.
func (e *EventEmitter) Subscribe(buffer int) <-chan models.Event {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan models.Event, buffer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// Emit delivers event to every subscriber whose buffer has room.
func (e *EventEmitter) Emit(event models.Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	for _, ch := range e.subs {
		select {
		case ch <- event:
		default:
			count := e.droppedCount.Add(1)
			if count%10 == 1 {
				log.Printf("[coordinator] WARNING: subscriber full, dropped event (total dropped: %d): type=%s", count, event.Type)
			}
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Close closes every subscriber channel. Later emits are discarded.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, ch := range e.subs {
		close(ch)
	}
	e.subs = nil
}
