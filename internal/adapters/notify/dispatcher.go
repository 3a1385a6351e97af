package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Sink delivers a notification over one channel (in-app, email, analytics).
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n domain.Notification) error
}

// Options configures a Dispatcher.
type Options struct {
	QueueSize      int
	Workers        int
	DeliverTimeout time.Duration
}

// Dispatcher fans notifications out to its sinks in the background.
// Notify never blocks: when the queue is full the notification is dropped and logged.
type Dispatcher struct {
	sinks   []Sink
	logger  *slog.Logger
	queue   chan job
	timeout time.Duration
	workers *pool.ContextPool
	done    chan struct{}

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

type job struct {
	ctx context.Context
	n   domain.Notification
}

var _ portssvc.Notifier = (*Dispatcher)(nil)

// NewDispatcher starts a dispatcher delivering to sinks. Call Close to drain it.
func NewDispatcher(logger *slog.Logger, opts Options, sinks ...Sink) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.DeliverTimeout <= 0 {
		opts.DeliverTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		sinks:   sinks,
		logger:  logger.With(slog.String("component", "notify")),
		queue:   make(chan job, opts.QueueSize),
		timeout: opts.DeliverTimeout,
		workers: pool.New().WithMaxGoroutines(opts.Workers).WithContext(context.Background()),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify queues n for delivery. The request context's values (logger, trace) are kept but
// its cancellation is not, so delivery outlives the HTTP request.
func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("Dispatcher closed, dropping notification", slog.String("notification_id", n.NotificationID))
		return
	}

	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), n: n}:
	default:
		d.logger.Warn("Notification queue full, dropping notification",
			slog.String("notification_id", n.NotificationID),
			slog.String("kind", string(n.Kind)),
			slog.String("user_id", n.UserID))
	}
}

// Close stops accepting notifications and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
		<-d.done
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for j := range d.queue {
		j := j
		// Go blocks while all workers are busy, which lets the queue absorb bursts.
		d.workers.Go(func(context.Context) error {
			d.deliver(j)
			return nil
		})
	}
	_ = d.workers.Wait()
}

func (d *Dispatcher) deliver(j job) {
	for _, sink := range d.sinks {
		var catcher panics.Catcher
		catcher.Try(func() {
			ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
			defer cancel()
			if err := sink.Deliver(ctx, j.n); err != nil {
				d.logger.Error("Notification delivery failed",
					slog.String("sink", sink.Name()),
					slog.String("notification_id", j.n.NotificationID),
					slog.String("error", err.Error()))
			}
		})
		if r := catcher.Recovered(); r != nil {
			d.logger.Error("Notification sink panicked",
				slog.String("sink", sink.Name()),
				slog.String("notification_id", j.n.NotificationID),
				slog.Any("panic", r.Value))
		}
	}
}
