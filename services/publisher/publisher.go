package publisher

import "context"

// Publisher represents a service for publishing extracted items
type Publisher interface {
	// Publish publishes a message to the stream of the given merchant
	Publish(ctx context.Context, merchant string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
