package eventbus

import (
	"sync"
	"time"
)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a simple in-process pub/sub event bus.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Topic][]subscription
	now      func() time.Time
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[Topic][]subscription),
		now:      time.Now,
	}
}

// Subscribe registers a handler for a topic and returns a func that removes it.
func (b *Bus) Subscribe(topic Topic, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[topic]
	for i, s := range subs {
		if s.id == id {
			b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) snapshot(topic Topic) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.handlers[topic]
	out := make([]Handler, len(subs))
	for i, s := range subs {
		out[i] = s.handler
	}
	return out
}

// Publish sends an event to all subscribers of the topic.
// Handlers are called synchronously in the order they were registered.
// A nil Bus is valid and drops everything.
func (b *Bus) Publish(topic Topic, payload any) {
	if b == nil {
		return
	}
	event := Event{Topic: topic, Payload: payload, Timestamp: b.now()}
	for _, h := range b.snapshot(topic) {
		h(event)
	}
}

// PublishAsync sends an event to all subscribers asynchronously.
func (b *Bus) PublishAsync(topic Topic, payload any) {
	if b == nil {
		return
	}
	event := Event{Topic: topic, Payload: payload, Timestamp: b.now()}
	for _, h := range b.snapshot(topic) {
		go h(event)
	}
}
