package wallet

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesAccessToSameKey(t *testing.T) {
	km := NewKeyedMutex()
	var counter int
	var maxObserved int
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("wallet:shared")
			defer unlock()
			counter++
			if counter > maxObserved {
				maxObserved = counter
			}
			counter--
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxObserved, "only one goroutine should ever hold the lock for a given key at a time")
	require.Equal(t, 0, counter)
}

func TestKeyedMutexDifferentKeysDoNotBlockEachOther(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock("wallet:a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("wallet:b")
		defer unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking an unrelated key must not block on a held key")
	}
}

func TestLockPairAcquiresBothLocksInFixedOrderRegardlessOfArgOrder(t *testing.T) {
	km := NewKeyedMutex()
	unlock := km.LockPair("wallet:b", "wallet:a")
	defer unlock()

	blocked := make(chan struct{})
	go func() {
		u := km.Lock("wallet:a")
		u()
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatal("wallet:a should still be held by the pair lock")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestLockPairSameKeyTwiceDoesNotDeadlock(t *testing.T) {
	km := NewKeyedMutex()

	done := make(chan struct{})
	go func() {
		unlock := km.LockPair("wallet:x", "wallet:x")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("LockPair with equal keys must not self-deadlock")
	}
}
