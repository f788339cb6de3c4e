package events

import "sync"

// Bus delivers events of one type to every current subscriber, synchronously
// and in subscription order.
type Bus[E any] struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(E)
	order  []int
}

func NewBus[E any]() *Bus[E] {
	return &Bus[E]{subs: map[int]func(E){}}
}

func (b *Bus[E]) Subscribe(fn func(E)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, sid := range b.order {
				if sid == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish hands e to each subscriber. Subscribers must not block.
func (b *Bus[E]) Publish(e E) {
	b.mu.RLock()
	handlers := make([]func(E), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(e)
	}
}

func (b *Bus[E]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// ProfileChanged is published after the employer's profile, avatar or
// permit changed on the server, so cached copies can be refreshed.
type ProfileChanged struct {
	SessionID string
	UserID    int64
	FullName  string
	AvatarURL string
	PermitURL string
}
