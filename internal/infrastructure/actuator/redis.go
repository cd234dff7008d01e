package actuator

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/mindaccess/opendoor-backend/internal/domain/errors"
	"github.com/mindaccess/opendoor-backend/internal/infrastructure/config"
)

// RedisRelay drives the door relay by publishing the open payload on a
// pub/sub channel the relay bridge subscribes to. The engine only observes
// local transmit success; delivery guarantees are the transport's problem.
type RedisRelay struct {
	client  *redis.Client
	channel string
	payload string
	logger  *zap.Logger
}

// NewRedisRelay connects to the relay broker and verifies connectivity.
func NewRedisRelay(cfg *config.RelayConfig, logger *zap.Logger) (*RedisRelay, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("relay config is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("relay broker connection failed: %w", err)
	}

	payload := cfg.OpenPayload
	if payload == "" {
		payload = "ON"
	}

	logger.Info("door relay connected",
		zap.String("addr", cfg.Addr),
		zap.String("channel", cfg.Channel))

	return &RedisRelay{
		client:  client,
		channel: cfg.Channel,
		payload: payload,
		logger:  logger,
	}, nil
}

// Open publishes the open command to the relay channel.
func (r *RedisRelay) Open(ctx context.Context) error {
	if err := r.client.Publish(ctx, r.channel, r.payload).Err(); err != nil {
		r.logger.Error("relay publish failed",
			zap.String("channel", r.channel),
			zap.Error(err))
		return apperrors.NewExternalError("relay", "publish failed").WithCause(err)
	}
	return nil
}

// Connected reports broker reachability for the status endpoint.
func (r *RedisRelay) Connected(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

// Close closes the broker connection.
func (r *RedisRelay) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("relay close failed", zap.Error(err))
		return fmt.Errorf("relay close failed: %w", err)
	}
	r.logger.Info("door relay connection closed")
	return nil
}
