// Package publisher ships outbox rows to Kafka. Kafka is the durable fan-out
// point for audit events; the outbox table decouples request handling from
// broker availability.
package publisher

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Outbox polls the audit_outbox table and publishes unpublished rows to the
// configured topic, marking them published on broker ack.
type Outbox struct {
	db       *sql.DB
	client   *kgo.Client
	topic    string
	logger   *slog.Logger
	interval time.Duration
}

// NewOutbox connects a franz-go producer to the brokers.
func NewOutbox(db *sql.DB, brokers []string, topic string, logger *slog.Logger) (*Outbox, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Outbox{
		db:       db,
		client:   client,
		topic:    topic,
		logger:   logger,
		interval: time.Second,
	}, nil
}

// Run polls until the context is cancelled.
func (o *Outbox) Run(ctx context.Context) error {
	defer o.client.Close()
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := o.publishBatch(ctx); err != nil {
				o.logger.ErrorContext(ctx, "audit outbox publish failed", "error", err)
			}
		}
	}
}

type outboxRow struct {
	ID      string
	Subject string
	Payload []byte
}

func (o *Outbox) publishBatch(ctx context.Context) error {
	rows, err := o.db.QueryContext(ctx, `
		SELECT id, subject, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT 100
	`)
	if err != nil {
		return fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var batch []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.ID, &row.Subject, &row.Payload); err != nil {
			return fmt.Errorf("scan outbox row: %w", err)
		}
		batch = append(batch, row)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, row := range batch {
		if err := o.publishRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (o *Outbox) publishRow(ctx context.Context, row outboxRow) error {
	record := Record(o.topic, row.Subject, row.Payload)
	if err := o.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event %s: %w", row.ID, err)
	}
	_, err := o.db.ExecContext(ctx,
		`UPDATE audit_outbox SET published_at = $1 WHERE id = $2`,
		time.Now(), row.ID,
	)
	if err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	return nil
}

// Record builds the Kafka record for one outbox row. Keying by subject keeps
// per-entity event ordering within a partition. Split out for testability
// without a broker.
func Record(topic, subject string, payload []byte) *kgo.Record {
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(subject),
		Value: payload,
	}
}

// DecodePayload round-trips an outbox payload for consumers and tests.
func DecodePayload(payload []byte) (map[string]any, error) {
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode audit payload: %w", err)
	}
	return decoded, nil
}
