// Package publish hands canonical messages to the queue channel.
//
// Two drivers exist: redis (streams, for distributed deployments) and
// sqlite (a durable outbox table, for single hosts). Both guarantee
// at-least-once handoff; neither retries on behalf of the caller.
package publish

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zarahq/zara-gw/internal/ingest"
)

// ErrNotConfigured signals a missing or unusable queue destination.
// Callers surface this as a configuration error, not a transient failure.
var ErrNotConfigured = errors.New("queue channel is not configured")

// Result correlates an accepted message with its queue-level identifier.
type Result struct {
	// MessageID is generated exactly once per accepted message and echoed
	// back to the caller; the queue channel never regenerates it.
	MessageID string

	// QueueMessageID is the channel's own identifier for the handoff
	// (stream entry ID for redis, outbox row ID for sqlite).
	QueueMessageID string
}

// Publisher is the capability object handed to ingress handlers. Implementations
// are safe for reuse across concurrent requests.
type Publisher interface {
	// Publish stamps the message with a fresh message_id and timestamp,
	// serializes it, and hands it to the queue channel with source and
	// message_id routing attributes plus any extras in attrs.
	Publish(ctx context.Context, msg *ingest.CanonicalMessage, attrs map[string]string) (*Result, error)
}

// stamp assigns the message identity and acceptance time. Called exactly
// once per accepted message; retries of the same logical request get a new
// identity (no deduplication in this system).
func stamp(msg *ingest.CanonicalMessage) {
	msg.MessageID = uuid.NewString()
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if msg.Metadata == nil {
		msg.Metadata = map[string]any{}
	}
}
