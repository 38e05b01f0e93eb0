package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// ErrAlreadyStarted is returned when Start is called more than once.
var ErrAlreadyStarted = errors.New("bus already started")

// Bus is the runtime's view of the backend event log.
type Bus struct {
	log    ports.EventLog
	ids    *IDAllocator
	logger *slog.Logger
	buffer int

	mu      sync.Mutex
	started bool
	ready   chan struct{}
	startup []domain.Event
	cursor  string

	local  chan domain.Event
	events chan domain.Event
}

// Option configures the Bus.
type Option func(*Bus)

// WithLogger configures a logger for the Bus.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithIDBatch sets how many identifiers are pre-fetched per refill.
// Non-positive values fall back to DefaultIDBatch.
func WithIDBatch(n int) Option {
	return func(b *Bus) {
		if n <= 0 {
			n = DefaultIDBatch
		}
		b.ids.batch = n
	}
}

// WithBuffer sets the capacity of the local and live channels.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		b.buffer = n
	}
}

// New creates a Bus on top of an event log and an identifier source.
func New(log ports.EventLog, ids ports.IDSource, opts ...Option) *Bus {
	b := &Bus{
		log:    log,
		ids:    NewIDAllocator(ids, DefaultIDBatch),
		logger: logging.NewNop(),
		buffer: 64,
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.local = make(chan domain.Event, b.buffer)
	b.events = make(chan domain.Event, b.buffer)
	return b
}

// Start fetches the startup snapshot, signals readiness and attaches the live feed.
// The live feed runs until ctx ends, after which Events is closed.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.started = true
	b.mu.Unlock()

	records, err := b.log.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch startup events: %w", err)
	}
	if err := b.ids.Prefetch(ctx); err != nil {
		return err
	}

	startup := make([]domain.Event, len(records))
	for i, rec := range records {
		startup[i] = rec.Event
	}
	cursor := ""
	if len(records) > 0 {
		cursor = records[len(records)-1].Seq
	}

	remote, err := b.log.Subscribe(ctx, cursor)
	if err != nil {
		return fmt.Errorf("failed to subscribe to live events: %w", err)
	}

	b.mu.Lock()
	b.startup = startup
	b.cursor = cursor
	b.mu.Unlock()
	close(b.ready)

	b.logger.Debug("Bus started", "startup_events", len(startup), "cursor", cursor)

	go b.forward(ctx, remote)
	return nil
}

// forward merges the remote subscription and local events into the live feed.
func (b *Bus) forward(ctx context.Context, remote <-chan domain.Record) {
	defer close(b.events)
	for {
		var ev domain.Event
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-remote:
			if !ok {
				b.logger.Debug("Bus: remote subscription closed")
				return
			}
			b.mu.Lock()
			b.cursor = rec.Seq
			b.mu.Unlock()
			ev = rec.Event
		case ev = <-b.local:
		}

		select {
		case b.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Ready is closed once the startup snapshot has been fetched.
func (b *Bus) Ready() <-chan struct{} {
	return b.ready
}

// Startup returns the startup events in log order.
// It is empty until Ready is closed.
func (b *Bus) Startup() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event(nil), b.startup...)
}

// Cursor returns the position of the last remote event seen.
func (b *Bus) Cursor() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// Events returns the live feed.
func (b *Bus) Events() <-chan domain.Event {
	return b.events
}

// Publish sends an event down the write path.
// Recorded events are appended to the log and come back through the live feed;
// unrecorded events skip the log and are queued on the live feed directly.
func (b *Bus) Publish(ctx context.Context, ev domain.Event, recorded bool) error {
	if recorded {
		if _, err := b.log.Append(ctx, ev); err != nil {
			return fmt.Errorf("failed to record %s event: %w", ev.Type, err)
		}
		return nil
	}

	select {
	case b.local <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetID returns a fresh element identifier from the pre-fetched pool.
func (b *Bus) GetID(ctx context.Context) (string, error) {
	return b.ids.Next(ctx)
}

// PostCreateEvent records a CREATE for a new element and returns its identifier.
// data.ID is ignored and replaced by a pooled identifier.
func (b *Bus) PostCreateEvent(ctx context.Context, data domain.CreateData) (string, error) {
	id, err := b.GetID(ctx)
	if err != nil {
		return "", err
	}
	data.ID = id
	if data.Pkg == "" {
		data.Pkg = domain.DefaultPkg
	}
	if err := b.Publish(ctx, domain.NewCreateEvent(data), true); err != nil {
		return "", err
	}
	return id, nil
}

// PostPatchEvent records a PATCH for an existing element.
func (b *Bus) PostPatchEvent(ctx context.Context, id string, patch domain.Patch) error {
	return b.Publish(ctx, domain.NewPatchEvent(id, patch), true)
}

// Rendered acknowledges that a rendering surface mounted the element.
func (b *Bus) Rendered(ctx context.Context, id string) error {
	return b.Publish(ctx, domain.NewRenderedEvent(id), false)
}
