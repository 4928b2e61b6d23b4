package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"
)

var (
	// ErrTopicRequired is returned when Publish is called without a topic.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrClosed is returned when publishing through a closed publisher.
	ErrClosed = errors.New("messaging: publisher is closed")
)

// Publisher sends messages to a broker topic (subject for NATS).
type Publisher interface {
	io.Closer

	// Publish sends msg to topic and waits for the broker to accept it.
	Publish(ctx context.Context, topic string, msg Message) (Receipt, error)
}

// Message is a broker-agnostic message to be published.
type Message struct {
	// Key is used by Kafka for partitioning.
	Key []byte
	// Body is the encoded payload.
	Body []byte
	// Headers travel as native headers or attributes where the broker has them.
	// NSQ has neither, so producers that need them also put them in Body.
	Headers map[string]string
}

// Receipt carries what the broker reported for an accepted message.
type Receipt struct {
	ID        string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

func headerKeys(h map[string]string) []string {
	return slices.Sorted(maps.Keys(h))
}

func validate(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	return nil
}

// Discard accepts every message without sending it anywhere. It backs the
// "none" driver so event producers run unchanged when no broker is configured.
type Discard struct{}

// Publish logs the message at debug level and drops it.
func (Discard) Publish(ctx context.Context, topic string, msg Message) (Receipt, error) {
	if err := validate(ctx, topic); err != nil {
		return Receipt{}, err
	}

	slog.DebugContext(ctx, "message discarded", "topic", topic, "bytes", len(msg.Body), "headers", headerKeys(msg.Headers))
	return Receipt{Topic: topic, Timestamp: time.Now()}, nil
}

// Close is a no-op.
func (Discard) Close() error {
	return nil
}
