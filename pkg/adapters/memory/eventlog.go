package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// EventLog implements ports.EventLog in memory.
// Sequence numbers are 1-based positions rendered as decimal strings.
type EventLog struct {
	mu      sync.RWMutex
	records []domain.Record
	// changed is closed and replaced on every append to wake subscribers.
	changed chan struct{}
}

// NewEventLog creates an empty in-memory log, optionally seeded with events.
func NewEventLog(seed ...domain.Event) *EventLog {
	l := &EventLog{changed: make(chan struct{})}
	if len(seed) > 0 {
		_, _ = l.Append(context.Background(), seed...)
	}
	return l
}

// Fetch returns a copy of every recorded event.
func (l *EventLog) Fetch(ctx context.Context) ([]domain.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Record, len(l.records))
	copy(out, l.records)
	return out, nil
}

// Append records events and wakes every subscriber.
func (l *EventLog) Append(ctx context.Context, events ...domain.Event) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Record, 0, len(events))
	for _, ev := range events {
		rec := domain.Record{Seq: strconv.Itoa(len(l.records) + 1), Event: ev}
		l.records = append(l.records, rec)
		out = append(out, rec)
	}
	if len(out) > 0 {
		close(l.changed)
		l.changed = make(chan struct{})
	}
	return out, nil
}

// Subscribe streams records appended after the cursor until ctx ends.
func (l *EventLog) Subscribe(ctx context.Context, after string) (<-chan domain.Record, error) {
	pos, err := ParseSeq(after)
	if err != nil {
		return nil, err
	}

	ch := make(chan domain.Record)
	go func() {
		defer close(ch)
		for {
			l.mu.RLock()
			pending := append([]domain.Record(nil), l.records[min(pos, len(l.records)):]...)
			wake := l.changed
			l.mu.RUnlock()

			for _, rec := range pending {
				select {
				case ch <- rec:
					pos++
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

// Len returns the number of recorded events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// ParseSeq turns a cursor produced by a positional log back into a position.
// An empty cursor is position zero.
func ParseSeq(seq string) (int, error) {
	if seq == "" {
		return 0, nil
	}
	pos, err := strconv.Atoi(seq)
	if err != nil || pos < 0 {
		return 0, fmt.Errorf("invalid cursor %q", seq)
	}
	return pos, nil
}
