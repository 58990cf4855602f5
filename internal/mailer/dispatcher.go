package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NeatNerdPrime/bluedoc/pkg/config"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
	"github.com/NeatNerdPrime/bluedoc/pkg/metrics"
)

// Dispatcher sends mail from a bounded queue on a fixed set of workers.
// Enqueue never blocks: a full queue drops the message.
type Dispatcher struct {
	composer  *Composer
	transport Transport
	metrics   *metrics.NotificationMetrics
	logg      *logger.Logger
	workers   int
	timeout   time.Duration

	queue chan queued

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

type queued struct {
	msg    Message
	logCtx context.Context
}

func NewDispatcher(cfg config.DispatchConfig, composer *Composer, transport Transport, m *metrics.NotificationMetrics, logg *logger.Logger) (*Dispatcher, error) {
	if composer == nil {
		return nil, errors.New("mail composer required")
	}
	if transport == nil {
		return nil, errors.New("mail transport required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	workers := cfg.MailWorkers
	if workers <= 0 {
		workers = 1
	}
	size := cfg.MailQueueSize
	if size < 0 {
		size = 0
	}
	timeout := cfg.MailTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		composer:  composer,
		transport: transport,
		metrics:   m,
		logg:      logg,
		workers:   workers,
		timeout:   timeout,
		queue:     make(chan queued, size),
	}, nil
}

// Start launches the workers. Calling it twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// Enqueue hands msg to the workers and reports whether it was accepted.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) bool {
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"notification_id": msg.NotificationID.String(),
		"thread_key":      msg.ThreadKey,
	})
	if msg.To == "" {
		d.metrics.IncMail(metrics.MailDropped)
		d.logg.Debug(logCtx, "recipient has no email address, skipping mail")
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.IncMail(metrics.MailDropped)
		d.logg.Warn(logCtx, "mail dispatcher closed, dropping mail")
		return false
	}

	item := queued{msg: msg, logCtx: d.logg.Detach(logCtx)}
	select {
	case d.queue <- item:
		d.metrics.IncMail(metrics.MailQueued)
		return true
	default:
		d.metrics.IncMail(metrics.MailDropped)
		d.logg.Warn(logCtx, "mail queue full, dropping mail")
		return false
	}
}

// Close stops accepting mail, drains the queue and waits for the workers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if started {
		d.wg.Wait()
	}
	return nil
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for item := range d.queue {
		d.deliver(item)
	}
}

func (d *Dispatcher) deliver(item queued) {
	ctx, cancel := context.WithTimeout(item.logCtx, d.timeout)
	defer cancel()

	env, err := d.composer.Compose(item.msg)
	if err != nil {
		d.metrics.IncMail(metrics.MailFailed)
		d.logg.Error(ctx, "compose notification mail", err)
		return
	}
	if err := d.transport.Send(ctx, env); err != nil {
		d.metrics.IncMail(metrics.MailFailed)
		d.logg.Error(ctx, "send notification mail", err)
		return
	}
	d.metrics.IncMail(metrics.MailSent)
	d.logg.Debug(ctx, "notification mail sent")
}
