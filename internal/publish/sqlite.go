package publish

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zarahq/zara-gw/internal/ingest"
)

// OutboxPublisher writes canonical messages to the message_outbox table for
// a co-located worker to claim. Single-host alternative to the redis driver.
type OutboxPublisher struct {
	db      *sql.DB
	timeout time.Duration
}

// NewOutboxPublisher wraps an opened outbox database.
func NewOutboxPublisher(db *sql.DB, timeout time.Duration) (*OutboxPublisher, error) {
	if db == nil {
		return nil, ErrNotConfigured
	}
	return &OutboxPublisher{db: db, timeout: timeout}, nil
}

// Publish implements Publisher.
func (p *OutboxPublisher) Publish(ctx context.Context, msg *ingest.CanonicalMessage, attrs map[string]string) (*Result, error) {
	stamp(msg)

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("serialize message: %w", err)
	}

	routing := map[string]string{
		"source":     msg.Source,
		"message_id": msg.MessageID,
	}
	for k, v := range attrs {
		if k == "source" || k == "message_id" {
			continue
		}
		routing[k] = v
	}
	attrJSON, err := json.Marshal(routing)
	if err != nil {
		return nil, fmt.Errorf("serialize attributes: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	rowID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = p.db.ExecContext(ctx, `
INSERT INTO message_outbox(id, message_id, source, payload, attributes, status, created_at)
VALUES(?, ?, ?, ?, ?, 'queued', ?);
`, rowID, msg.MessageID, msg.Source, string(payload), string(attrJSON), now)
	if err != nil {
		return nil, fmt.Errorf("insert outbox row: %w", err)
	}

	return &Result{MessageID: msg.MessageID, QueueMessageID: rowID}, nil
}
