package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type opSink interface {
	ObserveStoreOp(op string)
}

// RedisKV implements KV over a Redis client, storing each logical key as a
// JSON string. Every successful Write or Remove publishes the key on the
// change channel.
type RedisKV struct {
	client  *redis.Client
	channel string
	metrics opSink
	logger  *zap.Logger
}

// NewRedisKV constructs the adapter. metrics may be nil.
func NewRedisKV(client *redis.Client, channel string, metrics opSink, logger *zap.Logger) *RedisKV {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisKV{client: client, channel: channel, metrics: metrics, logger: logger}
}

func (s *RedisKV) observe(op string) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOp(op)
	}
}

// Read fetches and unmarshals the value at key. Missing and corrupt values
// are both reported as absent; corruption is logged and never surfaced.
func (s *RedisKV) Read(ctx context.Context, key string, dest interface{}) (bool, error) {
	s.observe("read")
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("malformed value treated as absent", zap.String("key", key), zap.Error(err))
		return false, nil
	}

	return true, nil
}

// Write marshals and stores the value, then signals the change.
func (s *RedisKV) Write(ctx context.Context, key string, value interface{}) error {
	s.observe("write")
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	s.signal(ctx, key)
	return nil
}

// Remove deletes the key and signals the change.
func (s *RedisKV) Remove(ctx context.Context, key string) error {
	s.observe("remove")
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}

	s.signal(ctx, key)
	return nil
}

// Changes subscribes to the change channel. The returned cancel function
// must be called when the consumer goes away.
func (s *RedisKV) Changes(ctx context.Context) (<-chan string, func(), error) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}

// signal is fire-and-forget: a lost signal is recovered by polling.
func (s *RedisKV) signal(ctx context.Context, key string) {
	if s.channel == "" {
		return
	}
	if err := s.client.Publish(ctx, s.channel, key).Err(); err != nil {
		s.logger.Warn("change signal publish failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the underlying Redis connection.
func (s *RedisKV) Close() error {
	return s.client.Close()
}
