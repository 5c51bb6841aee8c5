package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// InvoiceBatchCreated is the event type of a committed invoice batch
const InvoiceBatchCreated = "invoice.batch.created"

// InvoiceBatchEvent announces the invoices recorded for one gateway transaction
type InvoiceBatchEvent struct {
	EventType         string    `json:"event_type"`
	Reference         string    `json:"tripay_reference"`
	MerchantRef       string    `json:"merchant_ref"`
	BuyerEmail        string    `json:"buyer_email"`
	Amount            int64     `json:"amount"`
	InvoiceIDs        []uint    `json:"invoice_ids"`
	SkippedProductIDs []uint    `json:"skipped_product_ids"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// Producer publishes service events to Kafka
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewProducer connects a synchronous producer to the given brokers
func NewProducer(brokers []string, topic string, logger *zap.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start kafka producer: %w", err)
	}
	return NewProducerFromSync(producer, topic, logger), nil
}

// NewProducerFromSync wraps an existing sarama producer
func NewProducerFromSync(producer sarama.SyncProducer, topic string, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{producer: producer, topic: topic, logger: logger}
}

// PublishInvoiceBatch sends the event keyed by gateway reference so every
// event of one transaction lands on the same partition.
func (p *Producer) PublishInvoiceBatch(ctx context.Context, event InvoiceBatchEvent) error {
	if event.EventType == "" {
		event.EventType = InvoiceBatchCreated
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Reference),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s event: %w", event.EventType, err)
	}

	p.logger.Info("Published invoice batch event",
		zap.String("topic", p.topic),
		zap.String("tripay_reference", event.Reference),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close flushes and closes the underlying producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
