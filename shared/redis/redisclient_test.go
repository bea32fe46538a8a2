package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("Connects and pings", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewClient(&Config{Addr: mr.Addr()})
		require.NoError(t, err)
		defer client.Close()

		assert.NoError(t, client.Ping(context.Background()))
		assert.NotNil(t, client.GetClient())
	})

	t.Run("Fails when server is down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		client, err := NewClient(&Config{Addr: addr})
		assert.Error(t, err)
		assert.Nil(t, client)
	})
}

func TestRedisClient_PublishEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	id, err := client.PublishEvent(ctx, "portal:audit", 0, map[string]interface{}{
		"action": "rush.submit",
		"status": "SUCCESS",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := client.GetClient().XRange(ctx, "portal:audit", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rush.submit", entries[0].Values["action"])
}
