package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaBroker struct {
	writer messageWriter
}

func NewKafkaBroker(brokers []string) (*KafkaBroker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka broker requires at least one address")
	}
	return &KafkaBroker{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}, nil
}

func (b *KafkaBroker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	return b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (b *KafkaBroker) Close() error {
	return b.writer.Close()
}
