package streams

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/crashlens/crashlens-core/internal/config"
	"github.com/crashlens/crashlens-core/internal/monitoring"
)

// redisClient implements Client against a single Redis instance using the
// stream commands (XADD/XREADGROUP/XACK).
type redisClient struct {
	client *redis.Client
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(cfg config.StreamsConfig) (Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisClient{client: client}, nil
}

func (r *redisClient) Append(ctx context.Context, stream string, values map[string]interface{}) (string, error) {
	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		monitoring.RecordStreamOperation("append", stream, false)
		return "", fmt.Errorf("xadd (stream=%s): %w", stream, err)
	}
	monitoring.RecordStreamOperation("append", stream, true)
	return id, nil
}

func (r *redisClient) EnsureGroup(ctx context.Context, stream, group string) error {
	// Starting the group at "0" instead of "$" means a group recreated after
	// a restart still sees everything already in the stream.
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group %s on %s: %w", group, stream, err)
	}
	return nil
}

func (r *redisClient) ReadGroup(ctx context.Context, args ReadArgs) ([]Message, error) {
	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    args.Group,
		Consumer: args.Consumer,
		// ">" delivers only messages never seen by this group; unacked
		// messages stay pending and reappear after a consumer crash.
		Streams: []string{args.Stream, ">"},
		Count:   args.Count,
		Block:   args.Block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			// Block timeout with nothing new.
			return nil, nil
		}
		monitoring.RecordStreamOperation("read", args.Stream, false)
		return nil, fmt.Errorf("xreadgroup (stream=%s group=%s): %w", args.Stream, args.Group, err)
	}

	var messages []Message
	for _, s := range streams {
		for _, m := range s.Messages {
			messages = append(messages, Message{ID: m.ID, Values: m.Values})
		}
	}
	monitoring.RecordStreamOperation("read", args.Stream, true)
	return messages, nil
}

func (r *redisClient) Ack(ctx context.Context, stream, group, id string) error {
	if err := r.client.XAck(ctx, stream, group, id).Err(); err != nil {
		monitoring.RecordStreamOperation("ack", stream, false)
		return fmt.Errorf("xack (stream=%s): %w", stream, err)
	}
	monitoring.RecordStreamOperation("ack", stream, true)
	return nil
}

func (r *redisClient) Read(ctx context.Context, stream, lastID string, block time.Duration, count int64) ([]Message, string, error) {
	streams, err := r.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   count,
		Block:   block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, lastID, nil
		}
		return nil, lastID, fmt.Errorf("xread (stream=%s): %w", stream, err)
	}

	var messages []Message
	next := lastID
	for _, s := range streams {
		for _, m := range s.Messages {
			messages = append(messages, Message{ID: m.ID, Values: m.Values})
			next = m.ID
		}
	}
	return messages, next, nil
}

func (r *redisClient) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
