package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

// subscriberBuffer bounds how many undelivered events a slow SSE client can
// accumulate before the bus starts dropping — spec.md §4.7 "Subscribers may
// drop messages on buffer overflow; clients must resync by re-fetching
// unread counts from C4."
const subscriberBuffer = 64

// Bus is a single-process, multi-producer/multi-consumer broadcast channel.
// It requires no external broker (spec.md §9 "Event fan-out without a
// message broker") because the whole system runs in one process; swapping
// it for a real broker later only touches this file.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{} // userID -> set of subscriber channels
	logger zerolog.Logger
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string]map[chan Event]struct{}),
		logger: logger.With().Str("component", "notify_bus").Logger(),
	}
}

// Subscribe opens a channel for userID. Callers (the SSE handler) must call
// the returned cancel func when the stream closes.
func (b *Bus) Subscribe(userID string) (ch chan Event, cancel func()) {
	ch = make(chan Event, subscriberBuffer)
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan Event]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[userID], ch)
		if len(b.subs[userID]) == 0 {
			delete(b.subs, userID)
		}
		close(ch)
	}
	return ch, cancel
}

// Publish fans an event out to every currently-subscribed receiver. It
// never blocks: a full subscriber buffer drops the event for that
// subscriber only (spec.md §4.7).
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for userID := range ev.Receivers {
		for ch := range b.subs[userID] {
			select {
			case ch <- ev:
			default:
				b.logger.Warn().Str("user_id", userID).Str("kind", string(ev.Kind)).Msg("subscriber buffer full, dropping event")
			}
		}
	}
}

// SubscriberCount reports how many open streams a user currently has —
// used by tests and /healthz-style introspection.
func (b *Bus) SubscriberCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
