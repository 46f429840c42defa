package queue

import (
	"fmt"

	"github.com/quanterre/bookstream/pkg/messaging"
)

// DefaultPoolSize is the number of producers a PooledSender holds when the
// caller does not pick one.
const DefaultPoolSize = 8

// PooledSender is a MessageSender backed by a fixed pool of sarama sync
// producers. SendBookUpdate checks a producer out for the duration of one
// publish, so concurrent callers spread across connections instead of
// serializing on a single broker round-trip.
type PooledSender struct {
	pool chan messaging.MessageSender
	size int
}

// NewPooledSender creates a pool of size sync producers against the
// configured broker. size <= 0 uses DefaultPoolSize.
func NewPooledSender(size int) (*PooledSender, error) {
	return newPooledSender(size, func() (messaging.MessageSender, error) {
		return NewQueueMessageSender()
	})
}

func newPooledSender(size int, build func() (messaging.MessageSender, error)) (*PooledSender, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	p := &PooledSender{
		pool: make(chan messaging.MessageSender, size),
	}
	for i := 0; i < size; i++ {
		sender, err := build()
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to fill sender pool: %w", err)
		}
		p.pool <- sender
		p.size++
	}
	return p, nil
}

// SendBookUpdate publishes through the next free producer, blocking until
// one is available. The producer returns to the pool either way; sarama
// retries transient failures internally.
func (p *PooledSender) SendBookUpdate(update *messaging.BookUpdateMessage) error {
	sender := <-p.pool
	err := sender.SendBookUpdate(update)
	p.pool <- sender
	return err
}

// Close drains the pool and closes every producer, returning the first
// error seen. Callers must not race Close against SendBookUpdate.
func (p *PooledSender) Close() error {
	var firstErr error
	for i := 0; i < p.size; i++ {
		sender := <-p.pool
		if err := sender.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.size = 0
	return firstErr
}

// Ensure PooledSender implements MessageSender
var _ messaging.MessageSender = (*PooledSender)(nil)
