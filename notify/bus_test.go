package notify

import (
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversOnlyToReceivers(t *testing.T) {
	bus := NewBus(zerolog.New(io.Discard))
	chA, cancelA := bus.Subscribe("userA")
	defer cancelA()
	chB, cancelB := bus.Subscribe("userB")
	defer cancelB()

	bus.Publish(Event{Kind: KindUnreadDiscussionsCount, Receivers: map[string]struct{}{"userA": {}}})

	select {
	case ev := <-chA:
		require.Equal(t, KindUnreadDiscussionsCount, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("subscribed receiver never got the event")
	}

	select {
	case <-chB:
		t.Fatal("non-receiver must not see the event")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSubscribeCancelClosesChannelAndDropsCount(t *testing.T) {
	bus := NewBus(zerolog.New(io.Discard))
	ch, cancel := bus.Subscribe("userA")
	require.Equal(t, 1, bus.SubscriberCount("userA"))

	cancel()

	require.Equal(t, 0, bus.SubscriberCount("userA"))
	_, open := <-ch
	require.False(t, open)
}

func TestPublishToUnsubscribedUserIsANoop(t *testing.T) {
	bus := NewBus(zerolog.New(io.Discard))
	require.NotPanics(t, func() {
		bus.Publish(Event{Kind: KindUnreadDiscussionsCount, Receivers: map[string]struct{}{"nobody": {}}})
	})
}

func TestPublishDropsOnFullBufferInsteadOfBlocking(t *testing.T) {
	bus := NewBus(zerolog.New(io.Discard))
	_, cancel := bus.Subscribe("userA")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			bus.Publish(Event{Kind: KindUnreadDiscussionsCount, Receivers: map[string]struct{}{"userA": {}}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish must never block on a full subscriber buffer")
	}
}

func TestMultipleSubscribersForSameUserEachGetTheEvent(t *testing.T) {
	bus := NewBus(zerolog.New(io.Discard))
	ch1, cancel1 := bus.Subscribe("userA")
	defer cancel1()
	ch2, cancel2 := bus.Subscribe("userA")
	defer cancel2()

	bus.Publish(Event{Kind: KindUnreadDiscussionsCount, Receivers: map[string]struct{}{"userA": {}}})

	for _, ch := range []chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("every open subscription for the receiver must get the event")
		}
	}
}
