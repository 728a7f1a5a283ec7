package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher_PublishStatusChanged(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, ChannelStatusChanged)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	p := NewRedisPublisher(rdb)
	require.NoError(t, p.PublishStatusChanged(ctx, StatusChanged{
		ApplicationID:  "app-1",
		PreviousStatus: "under_review",
		NewStatus:      "approved",
	}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got StatusChanged
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, ChannelStatusChanged, got.Type)
	assert.Equal(t, "approved", got.NewStatus)
}

func TestRedisPublisher_ClosedClient(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	_ = rdb.Close()

	err := NewRedisPublisher(rdb).PublishStatusChanged(context.Background(), StatusChanged{})
	assert.Error(t, err)
}
