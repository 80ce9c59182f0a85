package publisher

import (
	"context"
	"encoding/base64"
	"strings"

	"sjsage522/inventoryhub/logger"

	"github.com/redis/go-redis/v9"
)

// MessageField is the stream entry field holding the base64 encoded item
const MessageField = "b64_item"

// RedisPublisher implements Publisher using one Redis stream per merchant
type RedisPublisher struct {
	client          *redis.Client
	streamPrefix    string
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, streamPrefix string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		streamPrefix:    streamPrefix,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher(),
	}
}

// Ping checks the connection to Redis
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// StreamName returns the stream a merchant's items are published to,
// e.g. inventory:depop
func (p *RedisPublisher) StreamName(merchant string) string {
	name := strings.ToLower(strings.Join(strings.Fields(merchant), "_"))
	if name == "" {
		name = "unknown"
	}
	return p.streamPrefix + ":" + name
}

// Publish publishes a message to the merchant's Redis stream.
// The message is base64 encoded before publishing.
func (p *RedisPublisher) Publish(ctx context.Context, merchant string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.StreamName(merchant),
		Values: map[string]interface{}{
			MessageField: encodedMessage,
		},
	}).Err()
}

// TrimStreams trims all streams under the prefix to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	iter := p.client.Scan(ctx, 0, p.streamPrefix+":*", 100).Iterator()
	trimmed := 0
	for iter.Next(ctx) {
		if err := p.client.XTrimMaxLen(ctx, iter.Val(), int64(p.streamMaxLength)).Err(); err != nil {
			return err
		}
		trimmed++
	}
	if err := iter.Err(); err != nil {
		return err
	}

	p.log.Debug().Int("streams", trimmed).Int("max_length", p.streamMaxLength).Msg("Streams trimmed")
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
