package services

import (
	"sync"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// Ensure EventBus implements the interfaces.
var (
	_ driven.EventPublisher   = (*EventBus)(nil)
	_ driving.EventSubscriber = (*EventBus)(nil)
)

type subscription struct {
	id       uint64
	listener func(domain.StageEvent)
}

// EventBus is an in-process fire-and-forget publisher of import events.
// Listeners are called synchronously in subscription order, so events for
// a task reach every listener in the order they were published. A
// panicking listener is logged and skipped.
type EventBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewEventBus creates an event bus with no listeners.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener and returns a function that removes it.
func (b *EventBus) Subscribe(listener func(domain.StageEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *EventBus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers event to every listener.
func (b *EventBus) Publish(event domain.StageEvent) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	logger.Debug("import event",
		"task", event.TaskID, "kind", event.Kind, "stage", event.Stage, "state", event.State)

	for _, s := range subs {
		deliver(s.listener, event)
	}
}

// Listeners returns the number of registered listeners.
func (b *EventBus) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func deliver(listener func(domain.StageEvent), event domain.StageEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event listener panicked", "task", event.TaskID, "kind", event.Kind, "panic", r)
		}
	}()
	listener(event)
}
