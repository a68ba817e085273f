package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.True(t, ok, "channel closed")
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
	}
}

func TestLocal_PublishSubscribe(t *testing.T) {
	n := NewLocal()
	ctx := context.Background()

	a, cancelA := n.Subscribe(ctx, "1")
	b, cancelB := n.Subscribe(ctx, "2")
	defer cancelB()

	require.NoError(t, n.Publish(ctx, "1"))
	receive(t, a)
	select {
	case <-b:
		t.Fatal("other user notified")
	default:
	}

	// Repeated publishes coalesce into one pending value.
	require.NoError(t, n.Publish(ctx, "1"))
	require.NoError(t, n.Publish(ctx, "1"))
	receive(t, a)

	cancelA()
	cancelA()
	_, ok := <-a
	assert.False(t, ok)
	require.NoError(t, n.Publish(ctx, "1"))
}

func TestRedis_PublishSubscribe(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	n := NewRedis(client, "sensai:", nil)
	ctx := context.Background()

	ch, cancel := n.Subscribe(ctx, "42")
	defer cancel()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("sensai:sessions:*")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, n.Publish(ctx, "42"))
	receive(t, ch)

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}
