package design

import (
	"context"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// NotificationKind tells a rendering surface what to do.
type NotificationKind string

const (
	AcceptChild  NotificationKind = "acceptchild"
	RemoveChild  NotificationKind = "removechild"
	StateChanged NotificationKind = "state"
)

// Notification is a message delivered to an element's mailbox.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	ChildID string           `json:"child_id,omitempty"`
	State   *domain.State    `json:"state,omitempty"`
}

// Mailbox is an unbounded FIFO of notifications for one element.
// Send never blocks, so the runtime can notify while holding its lock.
type Mailbox struct {
	mu     sync.Mutex
	queue  []Notification
	signal chan struct{}
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{signal: make(chan struct{}, 1)}
}

// Send enqueues a notification.
func (m *Mailbox) Send(n Notification) {
	m.mu.Lock()
	m.queue = append(m.queue, n)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Receive blocks until a notification is available or ctx ends.
func (m *Mailbox) Receive(ctx context.Context) (Notification, error) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			n := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return n, nil
		}
		m.mu.Unlock()

		select {
		case <-m.signal:
		case <-ctx.Done():
			return Notification{}, ctx.Err()
		}
	}
}

// Drain removes and returns every queued notification.
func (m *Mailbox) Drain() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.queue
	m.queue = nil
	return out
}

// Len returns the number of queued notifications.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
