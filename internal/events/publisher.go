package events

import (
	"context"
	"encoding/json"
	"fmt"

	"railpay/internal/logger"
	"railpay/internal/models"
	"railpay/internal/resilience"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Broker delivers an encoded event to a topic. key orders events of the
// same transaction.
type Broker interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	Close() error
}

// Publisher encodes transaction events and hands them to a Broker.
type Publisher struct {
	broker Broker
	prefix string
	policy *resilience.Policy
	logger *zap.Logger
}

func NewPublisher(broker Broker, prefix string, policy *resilience.Policy, log *zap.Logger) *Publisher {
	if broker == nil {
		panic("event broker is required")
	}
	if prefix == "" {
		prefix = "railpay"
	}
	return &Publisher{
		broker: broker,
		prefix: prefix,
		policy: policy,
		logger: logger.OrNop(log).Named("events"),
	}
}

func (p *Publisher) PublishTransactionInitiated(ctx context.Context, tx *models.Transaction) error {
	return p.publish(ctx, TransactionInitiated, tx, "")
}

func (p *Publisher) PublishTransactionValidated(ctx context.Context, tx *models.Transaction) error {
	return p.publish(ctx, TransactionValidated, tx, "")
}

func (p *Publisher) PublishTransactionCompleted(ctx context.Context, tx *models.Transaction) error {
	return p.publish(ctx, TransactionCompleted, tx, "")
}

func (p *Publisher) PublishTransactionFailed(ctx context.Context, tx *models.Transaction, reason string) error {
	return p.publish(ctx, TransactionFailed, tx, reason)
}

func (p *Publisher) publish(ctx context.Context, t EventType, tx *models.Transaction, reason string) error {
	event := newEvent(uuid.NewString(), t, tx, reason)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", t, err)
	}
	topic := Topic(p.prefix, t)

	err = p.policy.Execute(ctx, func(ctx context.Context) error {
		return p.broker.Publish(ctx, topic, tx.ID, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}

	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("transaction_id", tx.ID),
		zap.String("event_id", event.EventID))
	return nil
}

func (p *Publisher) Close() error {
	return p.broker.Close()
}
