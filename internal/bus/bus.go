// Package bus is the process-wide change notification bus. Facades publish a
// typed domain.Event after each applied mutation; observers subscribe, either
// to every kind or to a filtered set, and are invoked synchronously in
// subscription order.
//
// Publish does not hold the bus lock while observers run, so an observer may
// subscribe, unsubscribe or publish without deadlocking. Two publishes racing
// from different goroutines reach observers in whichever order they arrive.
package bus

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

// Observer receives events.
type Observer func(domain.Event)

type subscription struct {
	id    uint64
	fn    Observer
	kinds map[domain.EventKind]struct{} // nil = all
}

func (s *subscription) wants(k domain.EventKind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// Bus fans events out to observers.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	nextID uint64
	log    zerolog.Logger
}

// New returns an empty bus.
func New(log zerolog.Logger) *Bus {
	return &Bus{log: log.With().Str("component", "bus").Logger()}
}

// Subscribe registers fn for the given kinds (all kinds when none are given)
// and returns a function that removes the subscription. Calling the returned
// function more than once is harmless.
func (b *Bus) Subscribe(fn Observer, kinds ...domain.EventKind) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	if len(kinds) > 0 {
		sub.kinds = make(map[domain.EventKind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(sub.id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			next := make([]*subscription, 0, len(b.subs)-1)
			next = append(next, b.subs[:i]...)
			b.subs = append(next, b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every matching observer in subscription order. A
// panicking observer is logged and skipped; the remaining observers still run.
func (b *Bus) Publish(e domain.Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	observed.WithLabelValues(string(e.Kind)).Inc()
	for _, s := range subs {
		if !s.wants(e.Kind) {
			continue
		}
		b.deliver(s, e)
	}
}

func (b *Bus) deliver(s *subscription, e domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Str("kind", string(e.Kind)).Msg("observer panicked")
		}
	}()
	s.fn(e)
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
