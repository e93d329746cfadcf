package events

import (
	"context"
	"sync"
)

// Notifier delivers notifications to whoever renders them.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, Notification) {})

const defaultHistory = 50

// Bus fans notifications out to subscribers and keeps a bounded history.
type Bus struct {
	mu      sync.Mutex
	subs    map[int]func(Notification)
	nextID  int
	history []Notification
	limit   int
	log     bool
}

// NewBus returns a bus keeping the last limit notifications. When logged is
// set every notification is also written to the standard logger.
func NewBus(limit int, logged bool) *Bus {
	if limit <= 0 {
		limit = defaultHistory
	}
	return &Bus{subs: make(map[int]func(Notification)), limit: limit, log: logged}
}

func (b *Bus) Notify(ctx context.Context, n Notification) {
	b.mu.Lock()
	b.history = append(b.history, n)
	if over := len(b.history) - b.limit; over > 0 {
		b.history = append([]Notification(nil), b.history[over:]...)
	}
	subs := make([]func(Notification), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	if b.log {
		logNotification(n)
	}
	for _, fn := range subs {
		fn(n)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Notification)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Recent returns up to n of the latest notifications, oldest first.
func (b *Bus) Recent(n int) []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || n > len(b.history) {
		n = len(b.history)
	}
	out := make([]Notification, n)
	copy(out, b.history[len(b.history)-n:])
	return out
}

// Latest returns the most recent notification, if any.
func (b *Bus) Latest() (Notification, bool) {
	recent := b.Recent(1)
	if len(recent) == 0 {
		return Notification{}, false
	}
	return recent[0], true
}
