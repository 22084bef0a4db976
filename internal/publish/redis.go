package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zarahq/zara-gw/internal/ingest"
)

// RedisPublisher appends canonical messages to a redis stream. The full
// serialized message travels in the "payload" field; source, message_id and
// any extra attributes are flat entry fields so consumers can filter without
// deserializing the payload.
type RedisPublisher struct {
	client  *redis.Client
	stream  string
	timeout time.Duration
}

// NewRedisPublisher connects to redis at url and publishes to stream.
// The connection is created once and reused across invocations.
func NewRedisPublisher(url, stream string, timeout time.Duration) (*RedisPublisher, error) {
	if url == "" || stream == "" {
		return nil, ErrNotConfigured
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis url: %v", ErrNotConfigured, err)
	}
	return &RedisPublisher{
		client:  redis.NewClient(opts),
		stream:  stream,
		timeout: timeout,
	}, nil
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, msg *ingest.CanonicalMessage, attrs map[string]string) (*Result, error) {
	stamp(msg)

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("serialize message: %w", err)
	}

	values := buildStreamValues(payload, msg, attrs)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	entryID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("publish to stream %s: %w", p.stream, err)
	}

	return &Result{MessageID: msg.MessageID, QueueMessageID: entryID}, nil
}

// Close releases the redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func buildStreamValues(payload []byte, msg *ingest.CanonicalMessage, attrs map[string]string) map[string]any {
	values := map[string]any{
		"payload":    string(payload),
		"source":     msg.Source,
		"message_id": msg.MessageID,
	}
	for k, v := range attrs {
		// Extra attributes never shadow the core routing fields.
		if k == "payload" || k == "source" || k == "message_id" {
			continue
		}
		values[k] = v
	}
	return values
}
