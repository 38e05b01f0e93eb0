// Package kafka implements ports.EventLog on a single Kafka partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Config selects the topic partition that holds the design log.
type Config struct {
	Brokers     []string      `yaml:"brokers"`
	Topic       string        `yaml:"topic"`
	Partition   int           `yaml:"partition"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// Validate reports missing or inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	if len(c.Brokers) == 0 {
		errs = append(errs, errors.New("at least one broker is required"))
	}
	if c.Topic == "" {
		errs = append(errs, errors.New("topic is required"))
	}
	if c.Partition < 0 {
		errs = append(errs, fmt.Errorf("invalid partition %d", c.Partition))
	}
	return errors.Join(errs...)
}

// EventLog implements ports.EventLog. Offsets are the record sequence numbers.
//
// Append derives offsets from the partition end offset, so they are exact only
// while this process is the single writer of the partition.
type EventLog struct {
	cfg    Config
	dialer *kafkago.Dialer
	logger *slog.Logger

	mu sync.Mutex
}

// Option configures the EventLog.
type Option func(*EventLog)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *EventLog) {
		l.logger = logger
	}
}

// NewEventLog validates cfg and creates the log. No connection is made yet.
func NewEventLog(cfg Config, opts ...Option) (*EventLog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kafka config: %w", err)
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	l := &EventLog{
		cfg:    cfg,
		dialer: &kafkago.Dialer{Timeout: cfg.DialTimeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *EventLog) leader(ctx context.Context) (*kafkago.Conn, error) {
	conn, err := l.dialer.DialLeader(ctx, "tcp", l.cfg.Brokers[0], l.cfg.Topic, l.cfg.Partition)
	if err != nil {
		return nil, fmt.Errorf("failed to dial partition leader: %w", err)
	}
	return conn, nil
}

func (l *EventLog) reader(offset int64) (*kafkago.Reader, error) {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   l.cfg.Brokers,
		Topic:     l.cfg.Topic,
		Partition: l.cfg.Partition,
		Dialer:    l.dialer,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	if err := r.SetOffset(offset); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to seek to offset %d: %w", offset, err)
	}
	return r, nil
}

// Fetch reads the partition from its first offset up to the end offset
// observed when the call started.
func (l *EventLog) Fetch(ctx context.Context) ([]domain.Record, error) {
	conn, err := l.leader(ctx)
	if err != nil {
		return nil, err
	}
	first, last, err := conn.ReadOffsets()
	_ = conn.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read partition offsets: %w", err)
	}
	if last <= first {
		return nil, nil
	}

	r, err := l.reader(first)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := make([]domain.Record, 0, last-first)
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read startup events: %w", err)
		}
		if rec, ok := l.decode(msg); ok {
			out = append(out, rec)
		}
		if msg.Offset >= last-1 {
			return out, nil
		}
	}
}

// Subscribe streams messages after the cursor until ctx ends.
func (l *EventLog) Subscribe(ctx context.Context, after string) (<-chan domain.Record, error) {
	offset := kafkago.FirstOffset
	if after != "" {
		n, err := strconv.ParseInt(after, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor %q: %w", after, err)
		}
		offset = n + 1
	}

	r, err := l.reader(offset)
	if err != nil {
		return nil, err
	}

	ch := make(chan domain.Record)
	go func() {
		defer close(ch)
		defer r.Close()
		for {
			msg, err := r.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					l.logger.Error("Kafka subscription stopped", "topic", l.cfg.Topic, "err", err)
				}
				return
			}
			rec, ok := l.decode(msg)
			if !ok {
				continue
			}
			select {
			case ch <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Append produces events to the partition leader in one request.
func (l *EventLog) Append(ctx context.Context, events ...domain.Event) ([]domain.Record, error) {
	if len(events) == 0 {
		return nil, nil
	}

	msgs := make([]kafkago.Message, len(events))
	for i, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s event: %w", ev.Type, err)
		}
		msgs[i] = kafkago.Message{
			Key:     []byte(ev.TargetID()),
			Value:   data,
			Headers: []kafkago.Header{{Key: "type", Value: []byte(ev.Type)}},
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	conn, err := l.leader(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	base, err := conn.ReadLastOffset()
	if err != nil {
		return nil, fmt.Errorf("failed to read end offset: %w", err)
	}
	if _, err := conn.WriteMessages(msgs...); err != nil {
		return nil, fmt.Errorf("failed to produce events: %w", err)
	}

	out := make([]domain.Record, len(events))
	for i, ev := range events {
		out[i] = domain.Record{Seq: strconv.FormatInt(base+int64(i), 10), Event: ev}
	}
	return out, nil
}

func (l *EventLog) decode(msg kafkago.Message) (domain.Record, bool) {
	var ev domain.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		l.logger.Error("Skipping undecodable message", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		return domain.Record{}, false
	}
	return domain.Record{Seq: strconv.FormatInt(msg.Offset, 10), Event: ev}, true
}
