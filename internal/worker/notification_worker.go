// Package worker runs background consumers of domain events.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/events"
)

// ErrQueueFull is returned to the publisher when the worker cannot keep up.
var ErrQueueFull = errors.New("notification queue full")

// Deliverer sends one notification.
type Deliverer interface {
	Deliver(ctx context.Context, event events.Event) error
}

// NotificationWorker moves notification delivery off the request path.
// Publishing only enqueues; a single goroutine drains the queue.
type NotificationWorker struct {
	deliverer Deliverer
	logger    *zap.Logger
	queue     chan events.Event
	once      sync.Once
	done      chan struct{}
}

// NewNotificationWorker builds a worker with a bounded queue.
func NewNotificationWorker(deliverer Deliverer, logger *zap.Logger, queueSize int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 128
	}
	return &NotificationWorker{
		deliverer: deliverer,
		logger:    logger,
		queue:     make(chan events.Event, queueSize),
		done:      make(chan struct{}),
	}
}

// Subscribe registers the worker's enqueue handler for each topic.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher, topics ...events.EventType) {
	for _, topic := range topics {
		dispatcher.Subscribe(topic, w.enqueue)
	}
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start drains the queue until ctx is cancelled, then delivers whatever is
// still buffered before signalling Done.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.once.Do(func() {
		go w.run(ctx)
	})
}

// Done is closed once the worker has stopped.
func (w *NotificationWorker) Done() <-chan struct{} {
	return w.done
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *NotificationWorker) drain() {
	for {
		select {
		case event := <-w.queue:
			w.deliver(context.Background(), event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, event events.Event) {
	if err := w.deliverer.Deliver(ctx, event); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
