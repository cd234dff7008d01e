package actuator

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mindaccess/opendoor-backend/internal/infrastructure/config"
)

func testRelayConfig(addr string) *config.RelayConfig {
	return &config.RelayConfig{
		Addr:        addr,
		Channel:     "opendoor/relay",
		OpenPayload: "ON",
		DialTimeout: 2 * time.Second,
	}
}

func TestNewRedisRelay(t *testing.T) {
	t.Run("connects to a reachable broker", func(t *testing.T) {
		srv := miniredis.RunT(t)

		relay, err := NewRedisRelay(testRelayConfig(srv.Addr()), zap.NewNop())
		require.NoError(t, err)
		defer relay.Close()

		assert.True(t, relay.Connected(context.Background()))
	})

	t.Run("fails fast on an unreachable broker", func(t *testing.T) {
		_, err := NewRedisRelay(testRelayConfig("127.0.0.1:1"), zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "relay broker connection failed")
	})

	t.Run("requires config and logger", func(t *testing.T) {
		_, err := NewRedisRelay(nil, zap.NewNop())
		require.Error(t, err)

		_, err = NewRedisRelay(testRelayConfig("127.0.0.1:1"), nil)
		require.Error(t, err)
	})
}

func TestRedisRelay_Open(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	cfg := testRelayConfig(srv.Addr())
	relay, err := NewRedisRelay(cfg, zap.NewNop())
	require.NoError(t, err)
	defer relay.Close()

	sub := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer sub.Close()
	pubsub := sub.Subscribe(ctx, cfg.Channel)
	defer pubsub.Close()
	_, err = pubsub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, relay.Open(ctx))

	msg, err := pubsub.ReceiveTimeout(ctx, 2*time.Second)
	require.NoError(t, err)
	m, ok := msg.(*redis.Message)
	require.True(t, ok)
	assert.Equal(t, "ON", m.Payload)
	assert.Equal(t, cfg.Channel, m.Channel)
}

func TestRedisRelay_OpenAfterBrokerLoss(t *testing.T) {
	srv := miniredis.RunT(t)
	relay, err := NewRedisRelay(testRelayConfig(srv.Addr()), zap.NewNop())
	require.NoError(t, err)
	defer relay.Close()

	srv.Close()

	err = relay.Open(context.Background())
	require.Error(t, err)
	assert.False(t, relay.Connected(context.Background()))
}
