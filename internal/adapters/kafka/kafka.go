package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"chat-realtime/internal/config"

	"github.com/IBM/sarama"
)

// NewSaramaConfig returns the producer settings used for the event stream.
func NewSaramaConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy  // Enable compression
	cfg.Producer.Partitioner = sarama.NewHashPartitioner // Key controls the partition
	cfg.Version = sarama.V2_0_0_0
	cfg.ClientID = clientID
	cfg.Producer.MaxMessageBytes = 1000000
	return cfg
}

func InitKafkaProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewSaramaConfig(clientID))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

// Publisher writes realtime events to a single topic. Messages are keyed so
// every event of one conversation lands on the same partition in order.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewPublisher(producer sarama.SyncProducer, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{producer: producer, topic: topic, logger: logger}
}

// NewPublisherFromConfig dials the configured brokers.
func NewPublisherFromConfig(cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	producer, err := InitKafkaProducer(cfg.Brokers, cfg.ClientID)
	if err != nil {
		return nil, err
	}
	return NewPublisher(producer, cfg.Topic, logger), nil
}

func (p *Publisher) Publish(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}

	p.logger.Debug("Event published", "topic", p.topic, "key", key, "partition", partition, "offset", offset)
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
