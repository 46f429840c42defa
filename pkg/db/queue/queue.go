package queue

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/quanterre/bookstream/pkg/messaging"
)

const maxRetry = 5

var (
	brokerList = "localhost:9092"
	topic      = "book-updates"
)

// SetBrokerList overrides the default Kafka broker address.
func SetBrokerList(brokers string) {
	brokerList = brokers
}

// SetTopic overrides the default Kafka topic.
func SetTopic(t string) {
	topic = t
}

// QueueMessageSender implements the MessageSender interface
// for sending book updates to Kafka
type QueueMessageSender struct {
	producer sarama.SyncProducer
}

// NewQueueMessageSender creates a sender with its own sync producer.
func NewQueueMessageSender() (*QueueMessageSender, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = maxRetry

	producer, err := sarama.NewSyncProducer([]string{brokerList}, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &QueueMessageSender{producer: producer}, nil
}

// SendBookUpdate sends the book update to the Kafka queue, keyed by symbol.
func (q *QueueMessageSender) SendBookUpdate(update *messaging.BookUpdateMessage) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal book update: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(update.Symbol),
		Value: sarama.ByteEncoder(payload),
	}

	_, _, err = q.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	return nil
}

// Close closes the underlying producer.
func (q *QueueMessageSender) Close() error {
	return q.producer.Close()
}

// Ensure QueueMessageSender implements MessageSender
var _ messaging.MessageSender = (*QueueMessageSender)(nil)

// QueueMessageConsumer reads book updates back off the queue; used by the
// service's developer pretty-print loop.
type QueueMessageConsumer struct {
	consumer  sarama.Consumer
	partition sarama.PartitionConsumer
}

// NewQueueMessageConsumer creates a consumer positioned at the newest offset.
func NewQueueMessageConsumer() (*QueueMessageConsumer, error) {
	consumer, err := sarama.NewConsumer([]string{brokerList}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	partition, err := consumer.ConsumePartition(topic, 0, sarama.OffsetNewest)
	if err != nil {
		_ = consumer.Close()
		return nil, fmt.Errorf("failed to consume partition: %w", err)
	}

	return &QueueMessageConsumer{consumer: consumer, partition: partition}, nil
}

// ConsumeBookUpdates blocks, decoding messages and handing them to handle
// until the partition closes or handle returns an error.
func (c *QueueMessageConsumer) ConsumeBookUpdates(handle func(*messaging.BookUpdateMessage) error) error {
	for msg := range c.partition.Messages() {
		var update messaging.BookUpdateMessage
		if err := json.Unmarshal(msg.Value, &update); err != nil {
			return fmt.Errorf("failed to unmarshal book update: %w", err)
		}
		if err := handle(&update); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the partition and consumer.
func (c *QueueMessageConsumer) Close() error {
	if err := c.partition.Close(); err != nil {
		return err
	}
	return c.consumer.Close()
}
