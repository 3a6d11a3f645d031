// Package consumer reads record events from Kafka and feeds them to the
// indexing engine. Malformed payloads and schema-invalid records are logged
// and skipped; store failures are retried and, when retries are exhausted,
// left uncommitted so the message is redelivered.
package consumer

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibliofonds/recindex/internal/engine"
	"github.com/bibliofonds/recindex/pkg/errors"
	"github.com/bibliofonds/recindex/pkg/kafka"
	"github.com/bibliofonds/recindex/pkg/logger"
	"github.com/bibliofonds/recindex/pkg/metrics"
	"github.com/bibliofonds/recindex/pkg/resilience"
)

// RecordEvent is the wire form of one record on the ingest topic.
type RecordEvent struct {
	ID         string         `json:"id"`
	Fields     map[string]any `json:"fields"`
	IngestedAt time.Time      `json:"ingested_at"`
}

// CompleteEvent is published on the completion topic after a successful
// index operation.
type CompleteEvent struct {
	ID        string    `json:"id"`
	IndexedAt time.Time `json:"indexed_at"`
}

// RecordConsumer wraps a Kafka consumer to drive the indexing pipeline.
type RecordConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a RecordConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *RecordConsumer {
	return &RecordConsumer{
		consumer: kafkaConsumer,
		logger:   logger.WithComponent("record-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (rc *RecordConsumer) Start(ctx context.Context) error {
	rc.logger.Info("record consumer starting")
	return rc.consumer.Start(ctx)
}

// HandlerOptions carries the optional collaborators of HandleMessage. Any
// field may be nil (or zero) to disable that concern.
type HandlerOptions struct {
	// Producer, when non-nil, receives a CompleteEvent per indexed record.
	Producer *kafka.Producer
	// DB, when non-nil, tracks record status in PostgreSQL.
	DB *sql.DB
	// Metrics, when non-nil, feeds the indexing counters and consumer lag.
	Metrics *metrics.Metrics
	// RetryAttempts bounds retries of a failed store commit.
	RetryAttempts int
}

// HandleMessage returns a kafka.Handler that indexes every record event
// through eng.
func HandleMessage(eng *engine.Engine, opts HandlerOptions) kafka.Handler {
	base := logger.WithComponent("record-consumer")
	retryCfg := resilience.RetryConfig{MaxAttempts: opts.RetryAttempts}

	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[RecordEvent](value)
		if err != nil {
			base.Error("failed to decode record event",
				"error", err,
				"key", string(key),
			)
			if opts.Metrics != nil {
				opts.Metrics.DocsFailedTotal.WithLabelValues("decode").Inc()
			}
			return nil
		}
		if event.ID == "" {
			event.ID = string(key)
		}
		if event.ID == "" {
			base.Error("record event without an id, skipping")
			if opts.Metrics != nil {
				opts.Metrics.DocsFailedTotal.WithLabelValues("decode").Inc()
			}
			return nil
		}
		if opts.Metrics != nil && !event.IngestedAt.IsZero() {
			opts.Metrics.ConsumerLagSeconds.Set(time.Since(event.IngestedAt).Seconds())
		}

		ctx = logger.WithDocumentID(ctx, event.ID)
		log := logger.FromContext(ctx)
		log.Debug("processing record event")

		err = resilience.Retry(ctx, "index-record", retryCfg, func() error {
			indexErr := eng.IndexData(ctx, event.ID, event.Fields)
			if indexErr != nil && !stderrors.Is(indexErr, errors.ErrStore) {
				// Schema-shape and analysis failures are deterministic,
				// retrying cannot help.
				return resilience.Permanent(indexErr)
			}
			return indexErr
		})
		if err != nil {
			if stderrors.Is(err, errors.ErrStore) {
				updateRecordStatus(ctx, opts.DB, event.ID, "FAILED", log)
				if opts.Metrics != nil {
					opts.Metrics.DocsFailedTotal.WithLabelValues("store").Inc()
				}
				return fmt.Errorf("indexing record %s: %w", event.ID, err)
			}
			log.Error("record rejected, skipping", "error", err)
			updateRecordStatus(ctx, opts.DB, event.ID, "REJECTED", log)
			if opts.Metrics != nil {
				opts.Metrics.DocsFailedTotal.WithLabelValues("schema").Inc()
			}
			return nil
		}

		updateRecordStatus(ctx, opts.DB, event.ID, "INDEXED", log)

		if opts.Producer != nil {
			complete := CompleteEvent{ID: event.ID, IndexedAt: time.Now().UTC()}
			if err := opts.Producer.Publish(ctx, event.ID, complete); err != nil {
				log.Error("failed to publish completion event", "error", err)
			}
		}

		log.Info("record indexed")
		return nil
	}
}

// updateRecordStatus updates the record's status and indexed_at timestamp in
// PostgreSQL. If db is nil, the update is silently skipped.
func updateRecordStatus(ctx context.Context, db *sql.DB, docID, status string, log *slog.Logger) {
	if db == nil {
		return
	}
	_, err := db.ExecContext(ctx,
		`UPDATE records SET status = $1, indexed_at = NOW() WHERE doc_id = $2`,
		status, docID,
	)
	if err != nil {
		log.Error("failed to update record status",
			"doc_id", docID,
			"status", status,
			"error", err,
		)
	}
}
