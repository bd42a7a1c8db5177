package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed before event")
		return ev
	case <-time.After(time.Second):
		require.FailNow(t, "timed out waiting for event")
	}
	return Event[T]{}
}

func TestBroker_PublishReachesEverySubscriber(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx := context.Background()
	a := b.Subscribe(ctx)
	c := b.Subscribe(ctx)
	require.Equal(t, 2, b.Subscribers())

	b.Publish(KindSynced, "ok")

	for _, ch := range []<-chan Event[string]{a, c} {
		ev := recv(t, ch)
		require.Equal(t, KindSynced, ev.Kind)
		require.Equal(t, "ok", ev.Data)
		require.False(t, ev.At.IsZero())
	}
}

func TestBroker_CancelClosesSubscription(t *testing.T) {
	b := NewBroker[int]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-ch
	require.False(t, ok)
}

func TestBroker_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	b := NewBrokerSize[int](1)
	defer b.Close()

	ch := b.Subscribe(context.Background())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(KindChanged, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "publish blocked on a full subscriber")
	}
	require.Equal(t, 0, recv(t, ch).Data)
}

func TestBroker_SubscribeAfterClose(t *testing.T) {
	b := NewBroker[string]()
	b.Close()
	b.Close()

	ch := b.Subscribe(context.Background())
	_, ok := <-ch
	require.False(t, ok)
	b.Publish(KindLog, "ignored")
}

func TestListener_NextReturnsEvent(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	l := Listen[string](context.Background(), b)
	b.Publish(KindLoaded, "snapshot")

	msg := l.Next()()
	ev, ok := msg.(Event[string])
	require.True(t, ok, "expected Event[string], got %T", msg)
	require.Equal(t, "snapshot", ev.Data)
}

func TestListener_NilAfterCancel(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	l := Listen[string](ctx, b)
	cancel()

	require.Nil(t, l.Next()())
	var nilListener *Listener[string]
	require.Nil(t, nilListener.Next())
}
