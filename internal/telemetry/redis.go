package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
)

// RedisSink publishes events as JSON on a Redis pub/sub channel so external
// dashboards can watch the bot live.
type RedisSink struct {
	rdb     *goredis.Client
	channel string
}

// NewRedisSink connects to Redis at addr and publishes on channel.
func NewRedisSink(addr, password, channel string) (*RedisSink, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisSink{rdb: rdb, channel: channel}, nil
}

func (s *RedisSink) Write(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.rdb.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisSink) Close() error { return s.rdb.Close() }
