package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/go-chi/chi/v5"
)

// MaxIDBatch caps a single /ids request.
const MaxIDBatch = 1000

// StateTopic is the StreamManager topic carrying applied events.
const StateTopic = "state"

// StateView is the materialized design tree served under /state.
type StateView interface {
	State() domain.Snapshot
	StateFor(id string) (domain.ElementState, error)
}

// Server is the backend HTTP surface of a design log.
type Server struct {
	Log     ports.EventLog
	IDs     ports.IDSource
	Streams *StreamManager

	view      StateView
	catalog   *registry.Registry
	snapshots ports.SnapshotStore
	metrics   http.Handler
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStateView serves a materialized tree under /state.
func WithStateView(view StateView) Option {
	return func(s *Server) {
		s.view = view
	}
}

// WithRegistry serves the design element catalog under /catalog.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) {
		s.catalog = reg
	}
}

// WithSnapshots serves a snapshot store under /snapshots.
func WithSnapshots(store ports.SnapshotStore) Option {
	return func(s *Server) {
		s.snapshots = store
	}
}

// WithMetrics mounts a metrics handler under /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server over the given log and ID source.
func NewServer(log ports.EventLog, ids ports.IDSource, opts ...Option) *Server {
	s := &Server{
		Log:    log,
		IDs:    ids,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", s.GetEvents)
		r.Post("/", s.PostEvents)
		r.Get("/stream", s.SubscribeEvents)
	})
	r.Get("/ids", s.GetIDs)

	r.Route("/state", func(r chi.Router) {
		r.Get("/", s.GetState)
		r.Get("/stream", s.SubscribeState)
		r.Get("/{id}", s.GetElement)
	})
	r.Get("/catalog", s.GetCatalog)

	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", s.ListSnapshots)
		r.Get("/{project}", s.GetSnapshot)
		r.Put("/{project}", s.PutSnapshot)
		r.Delete("/{project}", s.DeleteSnapshot)
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return enableCORS(r)
}

// NewHandler is a shorthand for NewServer(...).Handler().
func NewHandler(log ports.EventLog, ids ports.IDSource, opts ...Option) http.Handler {
	return NewServer(log, ids, opts...).Handler()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":       "canopy-http",
		"version":   strings.TrimSpace(canopy.Version),
		"state":     s.view != nil,
		"catalog":   s.catalog != nil,
		"snapshots": s.snapshots != nil,
	})
}

// GetEvents handles the GET /events request: the startup fetch.
func (s *Server) GetEvents(w http.ResponseWriter, r *http.Request) {
	records, err := s.Log.Fetch(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Fetch error", err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// PostEvents handles the POST /events request. The body is a JSON array of events.
func (s *Server) PostEvents(w http.ResponseWriter, r *http.Request) {
	var events []domain.Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(events) == 0 {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", errors.New("no events"))
		return
	}

	records, err := s.Log.Append(r.Context(), events...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Append error", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, records)
}

// GetIDs handles the GET /ids request.
func (s *Server) GetIDs(w http.ResponseWriter, r *http.Request) {
	count := 1
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > MaxIDBatch {
			s.writeError(w, http.StatusBadRequest, "Invalid count", fmt.Errorf("count must be between 1 and %d", MaxIDBatch))
			return
		}
		count = n
	}

	ids, err := s.IDs.NextIDs(r.Context(), count)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "ID allocation error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	if s.view == nil {
		s.writeError(w, http.StatusNotImplemented, "No materialized state", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view.State())
}

// GetElement handles the GET /state/{id} request.
func (s *Server) GetElement(w http.ResponseWriter, r *http.Request) {
	if s.view == nil {
		s.writeError(w, http.StatusNotImplemented, "No materialized state", nil)
		return
	}
	el, err := s.view.StateFor(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrElementNotFound) {
			s.writeError(w, http.StatusNotFound, "Element not found", err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "State error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, el)
}

// GetCatalog handles the GET /catalog request.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.writeJSON(w, http.StatusOK, []domain.Category{})
		return
	}
	s.writeJSON(w, http.StatusOK, s.catalog.Categories())
}

// ListSnapshots handles the GET /snapshots request.
func (s *Server) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if !s.requireSnapshots(w) {
		return
	}
	projects, err := s.snapshots.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Snapshot error", err)
		return
	}
	if projects == nil {
		projects = []string{}
	}
	s.writeJSON(w, http.StatusOK, projects)
}

// GetSnapshot handles the GET /snapshots/{project} request.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireSnapshots(w) {
		return
	}
	snapshot, err := s.snapshots.Load(r.Context(), chi.URLParam(r, "project"))
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			s.writeError(w, http.StatusNotFound, "Snapshot not found", err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Snapshot error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

// PutSnapshot handles the PUT /snapshots/{project} request.
func (s *Server) PutSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireSnapshots(w) {
		return
	}
	var snapshot domain.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := s.snapshots.Save(r.Context(), chi.URLParam(r, "project"), snapshot); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Snapshot error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSnapshot handles the DELETE /snapshots/{project} request.
func (s *Server) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireSnapshots(w) {
		return
	}
	if err := s.snapshots.Delete(r.Context(), chi.URLParam(r, "project")); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Snapshot error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireSnapshots(w http.ResponseWriter) bool {
	if s.snapshots == nil {
		s.writeError(w, http.StatusNotImplemented, "No snapshot store", nil)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["detail"] = err.Error()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "err", err)
	} else {
		s.logger.Warn(msg, "err", err)
	}
	s.writeJSON(w, status, body)
}
