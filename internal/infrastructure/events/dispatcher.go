package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"user-service/internal/domain/user"
	"user-service/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	DefaultWorkers        = 2
	DefaultBufferSize     = 256
	DefaultPublishTimeout = 5 * time.Second
)

// Stats counts dispatcher outcomes.
type Stats struct {
	Enqueued  int64 `json:"enqueued"`
	Published int64 `json:"published"`
	Dropped   int64 `json:"dropped"`
	Failed    int64 `json:"failed"`
}

// Dispatcher implements user.Notifier. Events go onto a buffered channel that
// a pool of workers drains into the Publisher. A full buffer or a failed
// publish is logged as a notification failure and counted, never returned.
type Dispatcher struct {
	publisher      Publisher
	queue          chan user.Event
	workers        int
	publishTimeout time.Duration

	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool

	enqueued  atomic.Int64
	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewDispatcher creates a dispatcher. Zero values fall back to defaults.
func NewDispatcher(publisher Publisher, bufferSize, workers int, publishTimeout time.Duration) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	return &Dispatcher{
		publisher:      publisher,
		queue:          make(chan user.Event, bufferSize),
		workers:        workers,
		publishTimeout: publishTimeout,
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.stopped {
		return
	}

	logger.Info("Starting %d event workers", d.workers)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.started = true
}

// Stop closes the queue, waits for the workers to drain it and closes the
// publisher.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	if started {
		logger.Info("Stopping event workers...")
		d.wg.Wait()
	}

	// Events still buffered were never picked up by a worker.
	for range d.queue {
		d.dropped.Add(1)
	}

	if err := d.publisher.Close(); err != nil {
		logger.Warn("Failed to close event publisher: %v", err)
	}
	logger.Info("Event workers stopped")
}

// NotifyCreated enqueues a USER_CREATED event.
func (d *Dispatcher) NotifyCreated(ctx context.Context, u *user.User) {
	d.enqueue(ctx, user.NewEvent(user.EventUserCreated, u))
}

// NotifyDeleted enqueues a USER_DELETED event.
func (d *Dispatcher) NotifyDeleted(ctx context.Context, u *user.User) {
	d.enqueue(ctx, user.NewEvent(user.EventUserDeleted, u))
}

// Pinger is implemented by publishers that can probe their broker.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck probes the publisher's broker when it supports it.
func (d *Dispatcher) HealthCheck(ctx context.Context) error {
	if p, ok := d.publisher.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Enqueued:  d.enqueued.Load(),
		Published: d.published.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}

func (d *Dispatcher) enqueue(_ context.Context, event user.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		d.drop(event, "dispatcher stopped")
		return
	}

	select {
	case d.queue <- event:
		d.enqueued.Add(1)
	default:
		d.drop(event, "event queue is full")
	}
}

func (d *Dispatcher) drop(event user.Event, reason string) {
	d.dropped.Add(1)
	err := user.Notification("publish "+string(event.EventType), "", nil)
	logger.WithFields(logrus.Fields{
		"event_id":   event.EventID.String(),
		"event_type": event.EventType,
		"user_id":    event.UserID,
		"reason":     reason,
	}).Error(err.Error())
}

func (d *Dispatcher) worker(workerID int) {
	defer d.wg.Done()

	logger.Debug("Event worker %d started", workerID)

	for event := range d.queue {
		d.publish(workerID, event)
	}

	logger.Debug("Event worker %d stopped", workerID)
}

func (d *Dispatcher) publish(workerID int, event user.Event) {
	// Detached from the request: the request may be long gone by now.
	ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, event); err != nil {
		d.failed.Add(1)
		nerr := user.Notification("publish "+string(event.EventType), "", err)
		logger.WithFields(logrus.Fields{
			"worker":     workerID,
			"event_id":   event.EventID.String(),
			"event_type": event.EventType,
			"user_id":    event.UserID,
		}).Error(nerr.Error())
		return
	}

	d.published.Add(1)
}

var _ user.Notifier = (*Dispatcher)(nil)
