package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"example.com/mergington/internal/events"
)

const (
	headerEventType = "event_type"
	headerEventID   = "event_id"
	drainTimeout    = 5 * time.Second
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// DeadLetter is an event that could not be delivered.
type DeadLetter struct {
	Message  events.Message
	Reason   string
	FailedAt time.Time
}

// DispatcherConfig contains tunables for the Dispatcher.
type DispatcherConfig struct {
	Topic        string
	PollInterval time.Duration
	BatchSize    int
}

// Dispatcher drains the Queue and delivers events to Kafka.
type Dispatcher struct {
	queue            *Queue
	producer         messageWriter
	cfg              DispatcherConfig
	logger           *zap.Logger
	mu               sync.Mutex
	deadLetters      []DeadLetter
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(queue *Queue, producer messageWriter, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		queue:            queue,
		producer:         producer,
		cfg:              cfg,
		logger:           logger,
		shutdownComplete: make(chan struct{}),
	}
}

// Start launches the polling loop. It should be called in a goroutine. On
// cancellation it makes one last attempt to flush what is still queued.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if err := d.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("outbox dispatcher error", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			d.flush()
			return
		case <-ticker.C:
		}
	}
}

// Wait waits until dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

// DeadLetters returns a snapshot of undeliverable events.
func (d *Dispatcher) DeadLetters() []DeadLetter {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DeadLetter, len(d.deadLetters))
	copy(out, d.deadLetters)
	return out
}

func (d *Dispatcher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for d.queue.Len() > 0 {
		if err := d.processBatch(ctx); err != nil {
			d.logger.Error("outbox final flush", zap.Error(err), zap.Int("remaining", d.queue.Len()))
			return
		}
	}
}

func (d *Dispatcher) processBatch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	messages := d.queue.Drain(d.cfg.BatchSize)
	if len(messages) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	records := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		records = append(records, kafka.Message{
			Key:   []byte(msg.Key),
			Value: msg.Payload,
			Time:  msg.OccurredAt,
			Headers: []kafka.Header{
				{Key: headerEventType, Value: []byte(msg.EventType)},
				{Key: headerEventID, Value: []byte(msg.EventID)},
			},
		})
	}

	if err := d.producer.WriteMessages(ctx, d.cfg.Topic, records...); err != nil {
		failedCounter.Add(float64(len(messages)))
		d.moveToDeadLetters(messages, err.Error())
		return err
	}

	deliveredCounter.Add(float64(len(messages)))
	return nil
}

func (d *Dispatcher) moveToDeadLetters(messages []events.Message, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now().UTC()
	for _, msg := range messages {
		d.deadLetters = append(d.deadLetters, DeadLetter{Message: msg, Reason: reason, FailedAt: now})
	}
	d.logger.Warn("outbox events dead-lettered",
		zap.Int("count", len(messages)),
		zap.String("topic", d.cfg.Topic),
		zap.String("reason", reason),
	)
}
