package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"anomalyze/internal/platform/config"
)

// NewConsumer builds the client for the inbound anomalies topic. Offsets are
// committed automatically within the consumer group.
func NewConsumer(cfg config.Kafka) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(cfg.InboundTopic),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return client, nil
}

// NewProducer builds the client for the outbound alerts topic.
func NewProducer(cfg config.Kafka) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.OutboundTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return client, nil
}

// EnsureTopics verifies the inbound and outbound topics exist, so a
// misdeployed environment fails at startup instead of consuming nothing.
func EnsureTopics(ctx context.Context, client *kgo.Client, cfg config.Kafka) error {
	adm := kadm.NewClient(client)
	details, err := adm.ListTopics(ctx, cfg.InboundTopic, cfg.OutboundTopic)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	for _, topic := range []string{cfg.InboundTopic, cfg.OutboundTopic} {
		td, ok := details[topic]
		if !ok || td.Err != nil {
			return fmt.Errorf("topic %s not available", topic)
		}
	}
	return nil
}
