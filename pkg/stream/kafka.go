package stream

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/IBM/sarama"
)

func kafkaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	return cfg
}

// KafkaPublisher publishes via a synchronous producer so a returned nil
// error means the broker acknowledged the write.
type KafkaPublisher struct {
	producer sarama.SyncProducer
}

// NewKafkaPublisher connects to the brokers; failure here is fatal to
// process startup.
func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, kafkaConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka producer connect: %w", err)
	}
	return &KafkaPublisher{producer: producer}, nil
}

// Publish sends one unkeyed (broadcast) message.
func (p *KafkaPublisher) Publish(_ context.Context, topic string, value []byte) error {
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close shuts the producer down.
func (p *KafkaPublisher) Close() error { return p.producer.Close() }

// KafkaConsumer consumes topics inside a consumer group, so multiple
// process instances split partitions between them.
type KafkaConsumer struct {
	group sarama.ConsumerGroup
}

// NewKafkaConsumer joins the named consumer group.
func NewKafkaConsumer(brokers []string, groupID string) (*KafkaConsumer, error) {
	group, err := sarama.NewConsumerGroup(brokers, groupID, kafkaConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka consumer connect: %w", err)
	}
	return &KafkaConsumer{group: group}, nil
}

// Consume blocks until the context is cancelled, rejoining the group
// after rebalances.
func (c *KafkaConsumer) Consume(ctx context.Context, topics []string, handler Handler) error {
	h := &groupHandler{handler: handler}
	for {
		if err := c.group.Consume(ctx, topics, h); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return err
			}
			log.Printf("[stream] consumer group error on %v: %v", topics, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close leaves the consumer group.
func (c *KafkaConsumer) Close() error { return c.group.Close() }

type groupHandler struct {
	handler Handler
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.handler(sess.Context(), msg.Value); err != nil {
			log.Printf("[stream] handler error on %s: %v", msg.Topic, err)
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
