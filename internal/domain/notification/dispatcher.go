package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"bankdash/internal/shared/logger"
)

var (
	dispatchTracer          = otel.Tracer("bankdash/notification")
	dispatchMeter           = otel.Meter("bankdash/notification")
	deliveryDuration, _     = dispatchMeter.Float64Histogram("notification.delivery.duration", metric.WithDescription("Delivery duration in seconds"), metric.WithUnit("s"))
	deliveryTotal, _        = dispatchMeter.Int64Counter("notification.delivery.total", metric.WithDescription("Total deliveries by status"))
	deliveryQueueDropped, _ = dispatchMeter.Int64Counter("notification.delivery.queue_dropped", metric.WithDescription("Notifications dropped due to full queue"))
)

// ErrDispatcherClosed is returned by Submit after Shutdown.
var ErrDispatcherClosed = errors.New("notification dispatcher closed")

// Dispatcher is the fire-and-forget notification port used by money-moving
// operations. Notify never blocks on delivery and reports nothing back.
type Dispatcher interface {
	Notify(ctx context.Context, userID int64, msg Message)
}

// Sender delivers one message synchronously.
type Sender interface {
	SendToUser(ctx context.Context, userID int64, msg Message) error
}

// NopDispatcher discards every notification.
type NopDispatcher struct{}

func (NopDispatcher) Notify(context.Context, int64, Message) {}

type delivery struct {
	userID int64
	msg    Message
}

// AsyncDispatcher delivers notifications on a bounded pool of workers.
// When the queue is full the notification is dropped and logged.
type AsyncDispatcher struct {
	sender      Sender
	workerCount int
	timeout     time.Duration
	jobs        chan delivery
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	log         zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewAsyncDispatcher creates a dispatcher with workerCount workers and a
// queue of queueSize pending notifications. Call Start before Notify.
func NewAsyncDispatcher(sender Sender, workerCount, queueSize int, log zerolog.Logger) *AsyncDispatcher {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &AsyncDispatcher{
		sender:      sender,
		workerCount: workerCount,
		timeout:     30 * time.Second,
		jobs:        make(chan delivery, queueSize),
		ctx:         ctx,
		cancel:      cancel,
		log:         log,
	}
}

// Start launches the worker goroutines.
func (d *AsyncDispatcher) Start() {
	d.log.Info().Int("workers", d.workerCount).Msg("starting notification dispatcher")

	for i := 1; i <= d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *AsyncDispatcher) worker(id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case job, ok := <-d.jobs:
			if !ok {
				return
			}
			d.deliver(id, job)
		}
	}
}

func (d *AsyncDispatcher) deliver(workerID int, job delivery) {
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, d.log)

	ctx, span := dispatchTracer.Start(ctx, "notification.deliver",
		trace.WithAttributes(
			attribute.Int("worker.id", workerID),
			attribute.Int64("user.id", job.userID),
			attribute.String("notification.category", string(job.msg.Category)),
		),
	)
	defer span.End()

	start := time.Now()
	if err := d.sender.SendToUser(ctx, job.userID, job.msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		deliveryTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		deliveryDuration.Record(ctx, time.Since(start).Seconds())
		d.log.Error().Err(err).Int64("user_id", job.userID).Str("category", string(job.msg.Category)).Msg("notification delivery failed")
		return
	}

	deliveryTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
	deliveryDuration.Record(ctx, time.Since(start).Seconds())
}

// Notify queues msg for userID. It never blocks.
func (d *AsyncDispatcher) Notify(ctx context.Context, userID int64, msg Message) {
	if err := d.Submit(userID, msg); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int64("user_id", userID).Str("category", string(msg.Category)).Msg("notification dropped")
	}
}

// Submit adds a notification to the queue. Returns an error if the queue is
// full or the dispatcher has been shut down.
func (d *AsyncDispatcher) Submit(userID int64, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.jobs <- delivery{userID: userID, msg: msg}:
		return nil
	default:
		deliveryQueueDropped.Add(context.Background(), 1)
		return errors.New("notification queue full")
	}
}

// Shutdown stops accepting notifications and waits up to timeout for queued
// ones to be delivered before cancelling in-flight work.
func (d *AsyncDispatcher) Shutdown(timeout time.Duration) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("notification dispatcher drained")
	case <-time.After(timeout):
		d.log.Warn().Dur("timeout", timeout).Msg("notification dispatcher shutdown timed out")
	}
	d.cancel()
}
