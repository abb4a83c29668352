package wallet

import (
	"sync"
	"sync/atomic"
)

// KeyedMutex serializes mutations per wallet id so concurrent transfers
// touching the same wallet never race past the balance check (spec.md §3
// BalanceTransaction invariant "no wallet balance may go negative").
// Adapted from the teacher's request-concurrency KeyedMutex.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

type keyEntry struct {
	mu      sync.Mutex
	waiters int32
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyEntry)}
}

// Lock acquires the lock for key and returns the unlock func.
func (km *KeyedMutex) Lock(key string) func() {
	km.mu.Lock()
	entry, ok := km.locks[key]
	if !ok {
		entry = &keyEntry{}
		km.locks[key] = entry
	}
	atomic.AddInt32(&entry.waiters, 1)
	km.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		km.mu.Lock()
		if atomic.AddInt32(&entry.waiters, -1) == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}
}

// LockPair acquires both wallet locks in a fixed order to avoid deadlock
// between two concurrent transfers going opposite directions between the
// same two wallets.
func (km *KeyedMutex) LockPair(a, b string) func() {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	unlockFirst := km.Lock(first)
	if first == second {
		return unlockFirst
	}
	unlockSecond := km.Lock(second)
	return func() {
		unlockSecond()
		unlockFirst()
	}
}
