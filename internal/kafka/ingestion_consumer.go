package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/models"
)

// CacheInvalidator drops cached aggregates when the listing tables change
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// messageReader is the subset of *kafka.Reader the consumer uses
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Config() kafka.ReaderConfig
	Close() error
}

// IngestionConsumer listens for ingestion events so the API process can drop
// aggregates computed before the run.
type IngestionConsumer struct {
	reader messageReader
	cache  CacheInvalidator
	log    *zap.Logger
}

// NewIngestionConsumer creates a new Kafka consumer for ingestion events
func NewIngestionConsumer(brokers []string, topic, groupID string, cache CacheInvalidator, log *zap.Logger) *IngestionConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset, // Only react to new runs
		CommitInterval: time.Second,
	})

	return &IngestionConsumer{
		reader: reader,
		cache:  cache,
		log:    log,
	}
}

// Start begins consuming messages from Kafka
func (c *IngestionConsumer) Start(ctx context.Context) error {
	c.log.Info("starting ingestion consumer", zap.String("topic", c.reader.Config().Topic))

	for {
		select {
		case <-ctx.Done():
			c.log.Info("ingestion consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				c.log.Warn("error reading ingestion message", zap.Error(err))
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.log.Warn("error processing ingestion message", zap.Error(err))
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *IngestionConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.IngestionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal ingestion event: %w", err)
	}

	switch event.EventType {
	case models.EventTypeListingsIngested:
		c.log.Info("listings ingested, invalidating cached aggregates",
			zap.String("file", event.Data.File),
			zap.Int("inserted", event.Data.Inserted),
			zap.Int("errors", event.Data.Errors),
			zap.Int("total_listings", event.Data.TotalListings),
		)
		if c.cache == nil {
			return nil
		}
		if err := c.cache.Invalidate(ctx); err != nil {
			return fmt.Errorf("failed to invalidate cache: %w", err)
		}
		return nil

	default:
		c.log.Debug("ignoring unknown event type", zap.String("event_type", event.EventType))
		return nil
	}
}

// Close closes the Kafka consumer
func (c *IngestionConsumer) Close() error {
	return c.reader.Close()
}
