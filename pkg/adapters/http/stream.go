package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// StreamManager fans messages out to the SSE clients of a topic.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // topic -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a client on topic. The returned func unregisters it.
func (sm *StreamManager) Subscribe(topic string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 64)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- string]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[topic]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, topic)
			}
		}
	}
}

// Subscribers returns the number of clients on topic.
func (sm *StreamManager) Subscribers(topic string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[topic])
}

// Broadcast sends msg to every client of topic without blocking.
// Slow clients drop messages.
func (sm *StreamManager) Broadcast(topic string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "topic", topic)
		}
	}
}

// BroadcastEvent publishes an applied event on the state topic.
// It never blocks, so it is safe to call from runtime hooks.
func (sm *StreamManager) BroadcastEvent(ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "type", ev.Type, "err", err)
		return
	}
	sm.Broadcast(StateTopic, string(data))
}

func startSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	return flusher, true
}

// SubscribeEvents handles the GET /events/stream request (SSE).
// Every record recorded after the "after" cursor is sent with its sequence as the SSE id.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	after := r.URL.Query().Get("after")
	if after == "" {
		after = r.Header.Get("Last-Event-ID")
	}

	records, err := s.Log.Subscribe(r.Context(), after)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Subscribe error", err)
		return
	}

	flusher, ok := startSSE(w)
	if !ok {
		return
	}
	s.logger.Info("SSE: Subscribing to events", "after", after)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected")
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			data, err := json.Marshal(rec.Event)
			if err != nil {
				s.logger.Error("SSE: event encode failed", "seq", rec.Seq, "err", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\ndata: %s\n\n", rec.Seq, data)
			flusher.Flush()
		}
	}
}

// SubscribeState handles the GET /state/stream request (SSE).
// It carries every event the materialized view applies, recorded or not.
func (s *Server) SubscribeState(w http.ResponseWriter, r *http.Request) {
	ch, cancel := s.Streams.Subscribe(StateTopic)
	defer cancel()

	flusher, ok := startSSE(w)
	if !ok {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
