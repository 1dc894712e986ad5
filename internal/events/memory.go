package events

import (
	"context"
	"sync"
)

type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

// MemoryBroker keeps published messages in process.
type MemoryBroker struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{}
}

func (b *MemoryBroker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, Message{Topic: topic, Key: key, Payload: append([]byte(nil), payload...)})
	return nil
}

// Messages returns the messages published to topic, or all of them when
// topic is empty.
func (b *MemoryBroker) Messages(topic string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Message
	for _, m := range b.messages {
		if topic == "" || m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func (b *MemoryBroker) Close() error { return nil }
