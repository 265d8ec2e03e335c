package queue

import (
	"context"
	"sync"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// MemoryClient keeps sent messages in memory.
type MemoryClient struct {
	mu   sync.Mutex
	msgs []Message
}

func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.msgs = append(m.msgs, msg)
	m.mu.Unlock()
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *MemoryClient) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.msgs...)
}

var _ Client = (*MemoryClient)(nil)
