// Package outbox buffers participation events and delivers them to Kafka.
package outbox

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"example.com/mergington/internal/events"
)

// ErrQueueFull is returned when the outbox cannot accept more events.
var ErrQueueFull = errors.New("outbox queue full")

// Queue is an in-process outbox. Publish appends, the dispatcher drains in FIFO order.
type Queue struct {
	mu       sync.Mutex
	pending  []events.Message
	capacity int
}

// NewQueue creates a Queue holding at most capacity undelivered events.
// A non-positive capacity means unbounded.
func NewQueue(capacity int) *Queue {
	return &Queue{capacity: capacity}
}

// Publish implements domain.EventPublisher.
func (q *Queue) Publish(ctx context.Context, msg events.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 && len(q.pending) >= q.capacity {
		droppedCounter.Inc()
		return ErrQueueFull
	}
	q.pending = append(q.pending, msg)
	queueDepth.Set(float64(len(q.pending)))
	return nil
}

// Drain removes and returns up to limit events from the head of the queue.
func (q *Queue) Drain(limit int) []events.Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.pending)
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return nil
	}
	out := make([]events.Message, n)
	copy(out, q.pending[:n])
	q.pending = append(q.pending[:0], q.pending[n:]...)
	queueDepth.Set(float64(len(q.pending)))
	return out
}

// Len reports the number of undelivered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// LogPublisher writes events to the log instead of a broker. Used when no
// Kafka brokers are configured.
type LogPublisher struct {
	Logger *zap.Logger
}

// Publish implements domain.EventPublisher.
func (p LogPublisher) Publish(ctx context.Context, msg events.Message) error {
	p.Logger.Info("participation event",
		zap.String("event_id", msg.EventID),
		zap.String("event_type", msg.EventType),
		zap.String("key", msg.Key),
		zap.ByteString("payload", msg.Payload),
	)
	return nil
}
