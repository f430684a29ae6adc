// Package notifications is the publish boundary toward the external
// notification channel. This engine only emits; rendering and delivery
// belong to a downstream consumer.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"reservio/internal/reservations"
	"reservio/internal/waitlist"
)

// PromotionNotice is the message published when a waitlist entry is
// promoted to a hold.
type PromotionNotice struct {
	EntryID    string    `json:"entry_id"`
	ResourceID string    `json:"resource_id"`
	Requester  string    `json:"requester"`
	HoldID     string    `json:"hold_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProducerConfig contains configuration for the Kafka producer.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	RetryMax     int
	Timeout      time.Duration
	RequiredAcks sarama.RequiredAcks
}

// DefaultProducerConfig returns a default producer configuration.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "waitlist-promotions",
		RetryMax:     3,
		Timeout:      10 * time.Second,
		RequiredAcks: sarama.WaitForAll,
	}
}

// KafkaProducer publishes promotion notices to Kafka. It implements
// waitlist.Notifier.
type KafkaProducer struct {
	producer sarama.SyncProducer
	config   ProducerConfig
	logger   *slog.Logger
}

// NewKafkaProducer creates a Kafka promotion-notice producer.
func NewKafkaProducer(config ProducerConfig, logger *slog.Logger) (*KafkaProducer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = config.Timeout
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	// Hash on resource id so notices for one resource stay ordered.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		config:   config,
		logger:   logger,
	}, nil
}

// NotifyPromotion publishes a promotion notice.
func (p *KafkaProducer) NotifyPromotion(ctx context.Context, entry waitlist.Entry, hold *reservations.Reservation) error {
	notice := PromotionNotice{
		EntryID:    entry.ID.String(),
		ResourceID: entry.ResourceID.String(),
		Requester:  entry.Requester,
		HoldID:     hold.ID.String(),
		Start:      hold.StartTime,
		End:        hold.EndTime,
		CreatedAt:  time.Now().UTC(),
	}
	if hold.ExpiresAt != nil {
		notice.ExpiresAt = *hold.ExpiresAt
	}

	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal promotion notice: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.config.Topic,
		Key:   sarama.StringEncoder(notice.ResourceID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("entry_id"), Value: []byte(notice.EntryID)},
			{Key: []byte("requester"), Value: []byte(notice.Requester)},
			{Key: []byte("hold_expires_at"), Value: []byte(notice.ExpiresAt.Format(time.RFC3339))},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send promotion notice: %w", err)
	}

	p.logger.Info("promotion notice published",
		slog.String("topic", p.config.Topic),
		slog.Int64("partition", int64(partition)),
		slog.Int64("offset", offset),
		slog.String("entry_id", notice.EntryID),
	)
	return nil
}

// Close closes the underlying producer.
func (p *KafkaProducer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}
