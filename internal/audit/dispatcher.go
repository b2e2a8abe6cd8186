package audit

import (
	"context"
	"log/slog"
	"math/bits"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool

	// Logger receives backpressure and sink failure warnings. Nil discards them.
	Logger *slog.Logger
}

// Dispatcher forwards session events to a sink on its own goroutine so that
// login, rotation and revocation never wait on audit I/O.
type Dispatcher struct {
	cfg    Config
	sink   Sink
	logger *slog.Logger
	queue  chan Event
	stop   chan struct{}
	wg     sync.WaitGroup

	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once

	mu          sync.Mutex
	droppedType map[string]uint64
}

// NewDispatcher starts a dispatcher goroutine. It returns nil when cfg.Enabled is
// false; a nil *Dispatcher accepts and discards events.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := &Dispatcher{
		cfg:         cfg,
		sink:        sink,
		logger:      logger.With("subsystem", "audit"),
		queue:       make(chan Event, cfg.BufferSize),
		stop:        make(chan struct{}),
		droppedType: make(map[string]uint64),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop:
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver hands one event to the sink. A panicking sink loses that event only.
func (d *Dispatcher) deliver(event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("audit sink panicked", "event_type", event.EventType, "panic", r)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// Emit queues event for delivery. With DropIfFull set a full buffer drops the
// event and bumps [Dispatcher.Dropped]; otherwise Emit blocks until there is room,
// ctx is done, or the dispatcher closes.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.drop(event)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.logger.Warn("audit event abandoned", "event_type", event.EventType, "error", ctx.Err())
	case <-d.stop:
	}
}

// drop records a discarded event. The warning fires on the 1st, 2nd, 4th, 8th...
// drop so a stuck sink cannot flood the log.
func (d *Dispatcher) drop(event Event) {
	total := d.dropped.Add(1)

	d.mu.Lock()
	d.droppedType[event.EventType]++
	d.mu.Unlock()

	if bits.OnesCount64(total) == 1 {
		d.logger.Warn("audit buffer full, dropping events",
			"event_type", event.EventType,
			"dropped_total", total,
			"buffer_size", d.cfg.BufferSize,
		)
	}
}

// Close stops accepting events, drains the buffer into the sink and waits for the
// delivery goroutine to exit. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.wg.Wait()
		if n := d.dropped.Load(); n > 0 {
			d.logger.Warn("audit dispatcher closed with dropped events", "dropped_total", n)
		}
	})
}

// Dropped returns the number of events discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedByType breaks [Dispatcher.Dropped] down by event type.
func (d *Dispatcher) DroppedByType() map[string]uint64 {
	out := map[string]uint64{}
	if d == nil {
		return out
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, v := range d.droppedType {
		out[k] = v
	}
	return out
}
