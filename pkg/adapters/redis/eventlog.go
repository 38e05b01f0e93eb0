package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/mitchellh/mapstructure"
	backend "github.com/redis/go-redis/v9"
)

// EventLog implements ports.EventLog on a Redis stream.
// Stream entry IDs are the record sequence numbers.
type EventLog struct {
	client *backend.Client
	stream string
	block  time.Duration
	logger *slog.Logger
}

// streamEntry is the field layout of one stream entry.
type streamEntry struct {
	Type  string `mapstructure:"type"`
	Event string `mapstructure:"event"`
}

// NewEventLog creates a stream-backed log.
func NewEventLog(client *backend.Client, opts ...Option) *EventLog {
	c := newConfig(opts)
	return &EventLog{
		client: client,
		stream: c.prefix + "events",
		block:  c.block,
		logger: c.logger,
	}
}

// Fetch returns every entry currently in the stream.
func (l *EventLog) Fetch(ctx context.Context) ([]domain.Record, error) {
	msgs, err := l.client.XRange(ctx, l.stream, "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read event stream: %w", err)
	}
	records, err := decodeMessages(msgs)
	if err != nil {
		l.logger.Error("Skipping undecodable stream entries", "stream", l.stream, "err", err)
	}
	return records, nil
}

// Append adds events to the stream in a single transaction.
func (l *EventLog) Append(ctx context.Context, events ...domain.Event) ([]domain.Record, error) {
	if len(events) == 0 {
		return nil, nil
	}

	cmds := make([]*backend.StringCmd, len(events))
	_, err := l.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		for i, ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("failed to marshal %s event: %w", ev.Type, err)
			}
			cmds[i] = pipe.XAdd(ctx, &backend.XAddArgs{
				Stream: l.stream,
				Values: map[string]any{"type": string(ev.Type), "event": string(data)},
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append to event stream: %w", err)
	}

	out := make([]domain.Record, len(events))
	for i, cmd := range cmds {
		out[i] = domain.Record{Seq: cmd.Val(), Event: events[i]}
	}
	return out, nil
}

// Subscribe tails the stream after the cursor with blocking XREAD.
// Transient read errors are logged and retried after the block interval.
func (l *EventLog) Subscribe(ctx context.Context, after string) (<-chan domain.Record, error) {
	last := after
	if last == "" {
		last = "0-0"
	}

	ch := make(chan domain.Record)
	go func() {
		defer close(ch)
		for ctx.Err() == nil {
			streams, err := l.client.XRead(ctx, &backend.XReadArgs{
				Streams: []string{l.stream, last},
				Count:   100,
				Block:   l.block,
			}).Result()
			if err != nil {
				if errors.Is(err, backend.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				l.logger.Warn("Redis stream read failed", "stream", l.stream, "err", err)
				select {
				case <-time.After(l.block):
				case <-ctx.Done():
					return
				}
				continue
			}

			for _, s := range streams {
				records, err := decodeMessages(s.Messages)
				if err != nil {
					l.logger.Error("Dropping undecodable stream entries", "stream", l.stream, "err", err)
				}
				for _, rec := range records {
					select {
					case ch <- rec:
						last = rec.Seq
					case <-ctx.Done():
						return
					}
				}
				if n := len(s.Messages); n > 0 {
					last = s.Messages[n-1].ID
				}
			}
		}
	}()
	return ch, nil
}

func decodeMessages(msgs []backend.XMessage) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(msgs))
	var errs []error
	for _, msg := range msgs {
		var entry streamEntry
		if err := mapstructure.Decode(msg.Values, &entry); err != nil {
			errs = append(errs, fmt.Errorf("entry %s: %w", msg.ID, err))
			continue
		}
		var ev domain.Event
		if err := json.Unmarshal([]byte(entry.Event), &ev); err != nil {
			errs = append(errs, fmt.Errorf("entry %s: %w", msg.ID, err))
			continue
		}
		out = append(out, domain.Record{Seq: msg.ID, Event: ev})
	}
	return out, errors.Join(errs...)
}
