package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
)

// Client talks to a canopy backend server. It implements ports.EventLog and
// ports.IDSource, so an editor can run against a remote log.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithClientLogger configures a logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   http.DefaultClient,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("canopy server returned %d: %s", e.Code, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}

// Fetch returns the startup events.
func (c *Client) Fetch(ctx context.Context) ([]domain.Record, error) {
	var records []domain.Record
	if err := c.do(ctx, http.MethodGet, "/events", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Append records events on the server.
func (c *Client) Append(ctx context.Context, events ...domain.Event) ([]domain.Record, error) {
	if len(events) == 0 {
		return nil, nil
	}
	var records []domain.Record
	if err := c.do(ctx, http.MethodPost, "/events", events, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// NextIDs reserves n identifiers on the server.
func (c *Client) NextIDs(ctx context.Context, n int) ([]string, error) {
	var ids []string
	if err := c.do(ctx, http.MethodGet, "/ids?count="+strconv.Itoa(n), nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// State returns the server's materialized tree.
func (c *Client) State(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := c.do(ctx, http.MethodGet, "/state", nil, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Catalog returns the server's design element catalog.
func (c *Client) Catalog(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := c.do(ctx, http.MethodGet, "/catalog", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Subscribe opens the SSE live feed after the cursor.
// The connection is established before Subscribe returns.
func (c *Client) Subscribe(ctx context.Context, after string) (<-chan domain.Record, error) {
	path := "/events/stream"
	if after != "" {
		path += "?after=" + url.QueryEscape(after)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	ch := make(chan domain.Record)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		err := readSSE(resp.Body, func(msg sseMessage) bool {
			if msg.event != "" && msg.event != "message" {
				return true
			}
			var ev domain.Event
			if err := json.Unmarshal([]byte(msg.data), &ev); err != nil {
				c.logger.Error("Skipping undecodable SSE message", "id", msg.id, "err", err)
				return true
			}
			select {
			case ch <- domain.Record{Seq: msg.id, Event: ev}:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("Event stream ended", "err", err)
		}
	}()
	return ch, nil
}

type sseMessage struct {
	id    string
	event string
	data  string
}

// readSSE parses a text/event-stream body and calls emit for each message
// until emit returns false or the body ends.
func readSSE(r io.Reader, emit func(sseMessage) bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var msg sseMessage
	var data []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if len(data) > 0 {
				msg.data = strings.Join(data, "\n")
				if !emit(msg) {
					return nil
				}
			}
			msg, data = sseMessage{}, nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			msg.id = value
		case "event":
			msg.event = value
		case "data":
			data = append(data, value)
		}
	}
	return sc.Err()
}
