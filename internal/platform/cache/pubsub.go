package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// RedisPubSub publishes and forwards messages on one Redis channel. It shares
// the RedisCache client.
type RedisPubSub struct {
	cache   *RedisCache
	channel string
	logger  *slog.Logger
}

// NewRedisPubSub creates a pub/sub wrapper for channel.
func NewRedisPubSub(c *RedisCache, channel string, logger *slog.Logger) (*RedisPubSub, error) {
	if c == nil || c.Client == nil {
		return nil, fmt.Errorf("redis cache required")
	}
	if channel == "" {
		return nil, fmt.Errorf("channel required")
	}
	return &RedisPubSub{
		cache:   c,
		channel: channel,
		logger:  logger.With("component", "redis_pubsub", "channel", channel),
	}, nil
}

// Publish sends payload to every subscriber of the channel.
func (p *RedisPubSub) Publish(ctx context.Context, payload []byte) error {
	if err := p.cache.Client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// StartForwarder subscribes to the channel and calls onMsg for each message
// until ctx is cancelled. It returns once the subscription is confirmed.
func (p *RedisPubSub) StartForwarder(ctx context.Context, onMsg func(payload []byte)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := p.cache.Client.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					p.logger.Warn("subscription channel closed")
					return
				}
				onMsg([]byte(m.Payload))
			}
		}
	}()
	return nil
}
