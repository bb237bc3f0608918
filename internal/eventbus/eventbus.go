// ABOUTME: Notification bus for hook process lifecycle (started, finished, failed)
// ABOUTME: Goroutine-safe subscribe/unsubscribe; a nil *Bus drops every event

package eventbus

import (
	"sync"
	"time"
)

// Kind classifies a hook execution event.
type Kind int

const (
	HookStarted Kind = iota
	HookFinished
	HookFailed
)

func (k Kind) String() string {
	switch k {
	case HookStarted:
		return "started"
	case HookFinished:
		return "finished"
	case HookFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event describes one step of one hook process.
type Event struct {
	Kind     Kind
	HookType string
	Path     string
	Global   bool
	// Duration and ExitCode are set for finished and failed events.
	Duration time.Duration
	ExitCode int
	Cancel   bool
	Err      error
}

// Handler receives events.
type Handler func(Event)

// Bus fans events out to subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers a handler and returns an unsubscribe function.
func (b *Bus) Subscribe(handler Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish delivers event to every handler synchronously, in arbitrary
// order. Hooks run concurrently, so handlers must be goroutine-safe.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	snapshot := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(event)
	}
}

// Count returns the number of registered handlers.
func (b *Bus) Count() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
