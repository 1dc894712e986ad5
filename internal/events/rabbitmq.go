package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrPublishNacked  = errors.New("broker did not acknowledge the message")
	ErrConfirmTimeout = errors.New("timed out waiting for broker confirmation")
	ErrBrokerClosed   = errors.New("broker channel is closed")
)

type confirmableChannel interface {
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitBroker publishes to a topic exchange with publisher confirms. The
// topic becomes the routing key. Publishes are serialized so each confirm
// matches the message just sent.
type RabbitBroker struct {
	conn           *amqp.Connection
	ch             confirmableChannel
	confirms       chan amqp.Confirmation
	exchange       string
	confirmTimeout time.Duration
	mu             sync.Mutex
}

func NewRabbitBroker(url, exchange string) (*RabbitBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	b, err := newRabbitBroker(ch, exchange, 5*time.Second)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	b.conn = conn
	return b, nil
}

func newRabbitBroker(ch confirmableChannel, exchange string, confirmTimeout time.Duration) (*RabbitBroker, error) {
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	return &RabbitBroker{
		ch:             ch,
		confirms:       ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		exchange:       exchange,
		confirmTimeout: confirmTimeout,
	}, nil
}

func (b *RabbitBroker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: key,
		Timestamp:     time.Now().UTC(),
		Body:          payload,
	}
	if err := b.ch.PublishWithContext(ctx, b.exchange, topic, false, false, msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	timer := time.NewTimer(b.confirmTimeout)
	defer timer.Stop()
	select {
	case confirm, ok := <-b.confirms:
		if !ok {
			return ErrBrokerClosed
		}
		if !confirm.Ack {
			return ErrPublishNacked
		}
		return nil
	case <-timer.C:
		return ErrConfirmTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *RabbitBroker) Close() error {
	err := b.ch.Close()
	if b.conn != nil {
		if cerr := b.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
