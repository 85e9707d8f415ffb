package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/errors"
	"flowradar/pkg/logger"
)

// Config tunes dispatcher fan-out and queueing
type Config struct {
	QueueSize int
	Workers   int
	// MinSeverity drops payloads below this severity before fan-out;
	// empty delivers everything
	MinSeverity flow.Severity
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{
		QueueSize: 1024,
		Workers:   4,
	}
}

// Report records the outcome of one fan-out
type Report struct {
	AlertID   string
	Delivered []string
	Failed    map[string]error
}

// Err folds the per-channel failures into one error, nil when all
// deliveries succeeded
func (r Report) Err() error {
	multi := &errors.MultiError{}
	names := make([]string, 0, len(r.Failed))
	for name := range r.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		multi.Add(errors.NewChannelError(name, r.Failed[name]))
	}
	return multi.ToError()
}

// Dispatcher fans alert payloads out to registered channels. A failing
// channel never blocks the others; failures are isolated into the
// Report. The console channel is registered on construction.
type Dispatcher struct {
	cfg Config
	log *logger.Logger

	mu       sync.RWMutex
	channels map[string]Channel
	closed   bool

	queue chan Payload
	wg    sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the console channel attached
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	d := &Dispatcher{
		cfg:      cfg,
		log:      logger.Get().With("component", "dispatcher"),
		channels: make(map[string]Channel),
		queue:    make(chan Payload, cfg.QueueSize),
	}
	d.Register(NewConsoleChannel())
	return d
}

// Register adds or replaces a channel by name
func (d *Dispatcher) Register(ch Channel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[ch.Name()] = ch
}

// Unregister removes a channel; unknown names are a no-op
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.channels, name)
}

// Channels lists registered channel names, sorted
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch delivers a payload to every channel synchronously and
// reports per-channel outcomes
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) Report {
	report := Report{AlertID: p.AlertID, Failed: make(map[string]error)}

	if d.cfg.MinSeverity != "" && !p.Severity.AtLeast(d.cfg.MinSeverity) {
		return report
	}

	d.mu.RLock()
	channels := make([]Channel, 0, len(d.channels))
	for _, ch := range d.channels {
		channels = append(channels, ch)
	}
	d.mu.RUnlock()

	for _, ch := range channels {
		if err := d.deliver(ctx, ch, p); err != nil {
			report.Failed[ch.Name()] = err
			d.log.Warnw("delivery failed",
				"channel", ch.Name(), "alert_id", p.AlertID, "error", err)
			continue
		}
		report.Delivered = append(report.Delivered, ch.Name())
	}
	sort.Strings(report.Delivered)
	return report
}

// deliver shields the dispatcher from panicking channels
func (d *Dispatcher) deliver(ctx context.Context, ch Channel, p Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel panic: %v", r)
		}
	}()
	return ch.Deliver(ctx, p)
}

// Enqueue queues a payload for asynchronous delivery. Returns
// ErrQueueFull when the queue is saturated and ErrChannelClosed after
// Stop.
func (d *Dispatcher) Enqueue(p Payload) error {
	// The read lock is held across the send so Stop cannot close the
	// queue between the closed check and the send
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errors.ErrChannelClosed
	}

	select {
	case d.queue <- p:
		return nil
	default:
		return errors.Wrapf(errors.ErrQueueFull, "alert %s dropped", p.AlertID)
	}
}

// Start launches the delivery workers. They run until Stop closes the
// queue; ctx only scopes the deliveries themselves.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	d.log.Infow("dispatcher started", "workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize)
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for p := range d.queue {
		d.Dispatch(ctx, p)
	}
}

// Stop closes the queue and waits for in-flight deliveries
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Infow("dispatcher stopped")
}
