package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	bbolt "go.etcd.io/bbolt"
)

// EventLog implements ports.EventLog on the events bucket.
// Keys are big-endian bucket sequences, so cursor order is key order.
// Live delivery only covers appends made through this process.
type EventLog struct {
	d *DB

	mu      sync.Mutex
	changed chan struct{}
}

// EventLog returns the log backed by this database.
func (d *DB) EventLog() *EventLog {
	return &EventLog{d: d, changed: make(chan struct{})}
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func parseCursor(after string) (uint64, error) {
	if after == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(after, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor %q: %w", after, err)
	}
	return n, nil
}

// Fetch returns every recorded event.
func (l *EventLog) Fetch(ctx context.Context) ([]domain.Record, error) {
	return l.readAfter(0)
}

func (l *EventLog) readAfter(pos uint64) ([]domain.Record, error) {
	var out []domain.Record
	err := l.d.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(eventsBucket).Cursor()
		for k, v := c.Seek(seqKey(pos + 1)); k != nil; k, v = c.Next() {
			var ev domain.Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return fmt.Errorf("failed to decode event %d: %w", binary.BigEndian.Uint64(k), err)
			}
			seq := binary.BigEndian.Uint64(k)
			out = append(out, domain.Record{Seq: strconv.FormatUint(seq, 10), Event: ev})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Append stores events in one transaction and wakes subscribers.
func (l *EventLog) Append(ctx context.Context, events ...domain.Event) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Record, 0, len(events))
	err := l.d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		for _, ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("failed to marshal %s event: %w", ev.Type, err)
			}
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			if err := b.Put(seqKey(seq), data); err != nil {
				return err
			}
			out = append(out, domain.Record{Seq: strconv.FormatUint(seq, 10), Event: ev})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append events: %w", err)
	}

	if len(out) > 0 {
		l.mu.Lock()
		close(l.changed)
		l.changed = make(chan struct{})
		l.mu.Unlock()
	}
	return out, nil
}

// Subscribe streams records recorded after the cursor until ctx ends.
func (l *EventLog) Subscribe(ctx context.Context, after string) (<-chan domain.Record, error) {
	pos, err := parseCursor(after)
	if err != nil {
		return nil, err
	}

	ch := make(chan domain.Record)
	go func() {
		defer close(ch)
		for {
			l.mu.Lock()
			wake := l.changed
			l.mu.Unlock()

			pending, err := l.readAfter(pos)
			if err != nil {
				l.d.logger.Error("Bolt subscription read failed", "after", pos, "err", err)
				return
			}
			for _, rec := range pending {
				select {
				case ch <- rec:
					pos, _ = strconv.ParseUint(rec.Seq, 10, 64)
				case <-ctx.Done():
					return
				}
			}
			if len(pending) > 0 {
				continue
			}

			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
