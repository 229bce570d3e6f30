package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/pkg/eventbus"
)

func TestBroker_PublishReachesAllSubscribers(t *testing.T) {
	b := eventbus.NewBroker[int]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s1 := b.Subscribe(ctx)
	s2 := b.Subscribe(ctx)
	require.Equal(t, 2, b.SubscriberCount())

	b.Publish(42)

	assert.Equal(t, 42, <-s1)
	assert.Equal(t, 42, <-s2)
}

func TestBroker_CancelClosesSubscription(t *testing.T) {
	b := eventbus.NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("assinatura não foi fechada após cancelamento")
	}

	assert.Eventually(t, func() bool { return b.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBroker_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	b := eventbus.NewBrokerWithBuffer[int](1)
	defer b.Close()

	sub := b.Subscribe(context.Background())
	assert.Equal(t, 0, b.Publish(1))
	assert.Equal(t, 1, b.Publish(2)) // descartado

	assert.Equal(t, 1, <-sub)
	select {
	case v := <-sub:
		t.Fatalf("evento inesperado: %d", v)
	default:
	}
}

func TestBroker_SubscribeAfterClose(t *testing.T) {
	b := eventbus.NewBroker[int]()
	b.Close()
	b.Close() // idempotente

	_, ok := <-b.Subscribe(context.Background())
	assert.False(t, ok)
	assert.Equal(t, 0, b.Publish(1))
}
