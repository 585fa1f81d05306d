package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"fraud_monitor/internal/domain"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const fraudAlertEventType = "fraud.alert.opened"

// FraudAlertEvent is the payload published for every flagged transaction.
type FraudAlertEvent struct {
	EventType     string    `json:"event_type"`
	TransactionID string    `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	Amount        string    `json:"amount,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Category      string    `json:"category,omitempty"`
	Merchant      string    `json:"merchant,omitempty"`
	Reasons       []string  `json:"reasons"`
	EventTime     time.Time `json:"event_time"`
	PublishedAt   time.Time `json:"published_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes fraud events keyed by account id, so events of one
// account stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newKafkaPublisher(writer, topic, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

func (p *KafkaPublisher) PublishFraudAlert(ctx context.Context, tx *domain.Transaction) error {
	event := FraudAlertEvent{
		EventType:     fraudAlertEventType,
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Currency:      tx.Currency,
		Category:      string(tx.Category),
		Merchant:      tx.Merchant,
		Reasons:       tx.Reasons(),
		EventTime:     tx.EventTime,
		PublishedAt:   time.Now().UTC(),
	}
	if tx.Amount.Valid {
		event.Amount = tx.Amount.Decimal.String()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal fraud event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(tx.AccountID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(fraudAlertEventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	p.logger.DebugContext(ctx, "Fraud event published",
		slog.String("topic", p.topic),
		slog.String("transaction_id", tx.ID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
