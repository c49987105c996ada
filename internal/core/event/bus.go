package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted in tick N are readable
// in tick N+1. SwapBuffers() is called at tick start by EventDispatchSystem.
// Events are delivered in emission order across all types.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []any
	back     []any
	handlers map[reflect.Type][]handlerEntry
	nextID   uint64
}

type handlerEntry struct {
	id uint64
	fn func(any)
}

// Subscription identifies one registered handler. The zero value is a valid
// argument to Unsubscribe and does nothing.
type Subscription struct {
	typ reflect.Type
	id  uint64
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]any, 0, 64),
		back:     make([]any, 0, 64),
		handlers: make(map[reflect.Type][]handlerEntry),
	}
}

// Emit queues an event into the back buffer (will be readable next tick).
// T must be a concrete (non-interface) type.
func Emit[T any](b *Bus, event T) {
	b.back = append(b.back, event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.nextID++
	entry := handlerEntry{
		id: b.nextID,
		fn: func(ev any) { fn(ev.(T)) },
	}
	b.handlers[t] = append(b.handlers[t], entry)
	return Subscription{typ: t, id: entry.id}
}

// Unsubscribe removes the handler behind sub. Unknown or already removed
// subscriptions are ignored; the return value reports whether anything was
// removed.
func (b *Bus) Unsubscribe(sub Subscription) bool {
	if sub.typ == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[sub.typ]
	for i, h := range list {
		if h.id != sub.id {
			continue
		}
		// Build a fresh slice so a DispatchAll in progress keeps its snapshot.
		next := make([]handlerEntry, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(b.handlers, sub.typ)
		} else {
			b.handlers[sub.typ] = next
		}
		return true
	}
	return false
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	clear(b.front)
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
// Events emitted by handlers land in the back buffer.
func (b *Bus) DispatchAll() {
	for _, ev := range b.front {
		b.mu.Lock()
		handlers := b.handlers[reflect.TypeOf(ev)]
		b.mu.Unlock()
		for _, h := range handlers {
			h.fn(ev)
		}
	}
}

// Flush is SwapBuffers followed by DispatchAll.
func (b *Bus) Flush() {
	b.SwapBuffers()
	b.DispatchAll()
}

// Pending returns the number of events waiting for the next swap.
func (b *Bus) Pending() int {
	return len(b.back)
}
