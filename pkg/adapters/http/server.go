package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/aretw0/emergence/internal/logging"
	"github.com/aretw0/emergence/internal/metrics"
	mermaid "github.com/aretw0/emergence/internal/presentation/graph"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/editor"
	"github.com/aretw0/emergence/pkg/graph"
	"github.com/aretw0/emergence/pkg/ports"
	"github.com/aretw0/emergence/pkg/schema"
	"github.com/aretw0/emergence/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Engine is what the server needs from the document side.
type Engine interface {
	Document(ctx context.Context) (*domain.Document, error)
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Session is one presentation served over HTTP.
type Session interface {
	ports.Presenter
	LoadError() error
	Reload(ctx context.Context) error
	Close() error
}

// SessionFactory creates a session in the Intro phase.
type SessionFactory func(id string) Session

// Server exposes presentation sessions and editor operations as JSON over HTTP.
type Server struct {
	engine     Engine
	newSession SessionFactory

	mu       sync.Mutex
	sessions map[string]Session

	manager *session.Manager
	metrics *metrics.Collector
	streams *StreamManager
	logger  *slog.Logger
	version string
}

// Option configures the Server.
type Option func(*Server)

// WithManager persists a snapshot after every accepted action and restores unknown
// session ids from the store.
func WithManager(m *session.Manager) Option {
	return func(s *Server) {
		s.manager = m
	}
}

// WithMetrics serves the collector on /metrics and tracks live sessions.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithStreams shares a StreamManager whose Hooks were given to the sessions.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a server. Sessions are created through factory.
func NewServer(engine Engine, factory SessionFactory, opts ...Option) *Server {
	s := &Server{
		engine:     engine,
		newSession: factory,
		sessions:   make(map[string]Session),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.streams == nil {
		s.streams = NewStreamManager()
	}
	s.streams.logger = s.logger
	return s
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.handleHealth)
	r.Get("/document", s.handleDocument)
	r.Get("/graph", s.handleGraph)
	r.Get("/events", s.handleEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/activate", s.action(func(ctx context.Context, sess Session, _ *http.Request) error {
				return sess.Activate(ctx)
			}))
			r.Post("/select", s.action(s.doSelect))
			r.Post("/return", s.action(func(ctx context.Context, sess Session, _ *http.Request) error {
				return sess.ReturnToOrigin(ctx)
			}))
			r.Post("/retry", s.action(func(ctx context.Context, sess Session, _ *http.Request) error {
				return sess.Retry(ctx)
			}))
			r.With(middleware.RequestSize(maxDocumentBytes)).Post("/preview", s.action(s.doPreview))
			r.Post("/commit", s.action(func(ctx context.Context, sess Session, _ *http.Request) error {
				return sess.Commit(ctx)
			}))
			r.Post("/revert", s.action(func(ctx context.Context, sess Session, _ *http.Request) error {
				return sess.Revert(ctx)
			}))
		})
	})

	r.Route("/editor", func(r chi.Router) {
		r.Use(middleware.RequestSize(maxDocumentBytes))
		r.Post("/validate", s.handleValidate)
		r.Post("/format", s.handleFormat)
		r.Post("/stats", s.handleStats)
	})
	return r
}

// ReloadAll refetches the document for every live session.
func (s *Server) ReloadAll(ctx context.Context) {
	s.mu.Lock()
	live := make(map[string]Session, len(s.sessions))
	for id, sess := range s.sessions {
		live[id] = sess
	}
	s.mu.Unlock()

	for id, sess := range live {
		if err := sess.Reload(ctx); err != nil {
			s.logger.Warn("session reload failed", "session_id", id, "err", err)
			continue
		}
		s.persist(ctx, id, sess)
	}
}

// Close closes every live session.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		_ = sess.Close()
		delete(s.sessions, id)
	}
	return nil
}

// SessionView is the JSON representation of a session.
type SessionView struct {
	SessionID  string               `json:"session_id"`
	Phase      domain.Phase         `json:"phase"`
	Previewing bool                 `json:"previewing"`
	History    []string             `json:"history,omitempty"`
	LoadError  string               `json:"load_error,omitempty"`
	View       *domain.DisplayModel `json:"view,omitempty"`
}

func (s *Server) viewOf(id string, sess Session) SessionView {
	snap := sess.Snapshot()
	v := SessionView{
		SessionID:  id,
		Phase:      snap.Phase,
		Previewing: snap.Previewing,
		History:    snap.History,
	}
	if err := sess.LoadError(); err != nil {
		v.LoadError = err.Error()
	}
	if snap.Phase == domain.PhaseExpanded {
		if dm, err := sess.DisplayModel(); err == nil {
			v.View = dm
		}
	}
	return v
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	if s.manager != nil {
		// Reserve the id so other replicas sharing the store see it immediately.
		if _, err := s.manager.LoadOrCreate(r.Context(), id); err != nil {
			writeError(w, statusOf(err), err)
			return
		}
	}
	sess := s.newSession(id)

	if err := sess.Start(r.Context()); err != nil {
		_ = sess.Close()
		if s.manager != nil {
			_ = s.manager.Delete(r.Context(), id)
		}
		writeError(w, statusOf(err), err)
		return
	}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SessionStarted()
	}
	s.logger.Info("session created", "session_id", id)

	if wantWait(r) {
		sess.Wait()
	}
	s.persist(r.Context(), id, sess)
	writeJSON(w, http.StatusCreated, s.viewOf(id, sess))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.lookup(r.Context(), id)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	if wantWait(r) {
		sess.Wait()
	}
	writeJSON(w, http.StatusOK, s.viewOf(id, sess))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		phase := sess.Phase()
		_ = sess.Close()
		if s.metrics != nil {
			s.metrics.SessionClosed(phase)
		}
	}
	if s.manager != nil {
		if err := s.manager.Delete(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	} else if !ok {
		writeError(w, http.StatusNotFound, domain.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type actionFunc func(ctx context.Context, sess Session, r *http.Request) error

// action runs fn on the session under the session lock, then persists its snapshot.
func (s *Server) action(fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sess, err := s.lookup(r.Context(), id)
		if err != nil {
			writeError(w, statusOf(err), err)
			return
		}

		run := func(ctx context.Context) error { return fn(ctx, sess, r) }
		if s.manager != nil {
			err = s.manager.WithLock(r.Context(), id, run)
		} else {
			err = run(r.Context())
		}
		if err != nil {
			s.logger.Debug("action rejected", "session_id", id, "path", r.URL.Path, "err", err)
			writeError(w, statusOf(err), err)
			return
		}

		if wantWait(r) {
			sess.Wait()
		}
		s.persist(r.Context(), id, sess)
		writeJSON(w, http.StatusOK, s.viewOf(id, sess))
	}
}

type selectRequest struct {
	Index *int `json:"index"`
}

func (s *Server) doSelect(ctx context.Context, sess Session, r *http.Request) error {
	var body selectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Index == nil {
		return &requestError{msg: "body must be {\"index\": n}"}
	}
	return sess.Select(ctx, *body.Index)
}

func (s *Server) doPreview(ctx context.Context, sess Session, r *http.Request) error {
	text, err := readText(r)
	if err != nil {
		return err
	}
	doc, err := s.checkDocument(text)
	if err != nil {
		return err
	}
	return sess.Preview(ctx, doc)
}

// lookup returns a live session, or restores it from the snapshot store.
func (s *Server) lookup(ctx context.Context, id string) (Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}
	if s.manager == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}

	snap, err := s.manager.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, id)
	}
	sess = s.newSession(id)
	if err := sess.Restore(ctx, snap); err != nil {
		_ = sess.Close()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		// Lost a race with a concurrent restore.
		_ = sess.Close()
		return existing, nil
	}
	s.sessions[id] = sess
	if s.metrics != nil {
		s.metrics.SessionStarted()
	}
	s.logger.Info("session restored", "session_id", id, "phase", snap.Phase)
	return sess, nil
}

func (s *Server) persist(ctx context.Context, id string, sess Session) {
	if s.manager == nil {
		return
	}
	if err := s.manager.Save(ctx, id, sess.Snapshot()); err != nil {
		s.logger.Warn("failed to persist session", "session_id", id, "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	live := len(s.sessions)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"sessions": live,
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.engine.Document(r.Context())
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleGraph serves the inspection report, or a Mermaid chart with ?format=mermaid.
// ?session_id overlays that session's position on the chart.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := s.engine.Document(r.Context())
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	if r.URL.Query().Get("format") != "mermaid" {
		writeJSON(w, http.StatusOK, graph.Inspect(doc))
		return
	}

	var overlay *mermaid.GraphOverlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		sess, err := s.lookup(r.Context(), id)
		if err != nil {
			writeError(w, statusOf(err), err)
			return
		}
		snap := sess.Snapshot()
		overlay = &mermaid.GraphOverlay{VisitedNodes: snap.History, CurrentNode: snap.CurrentNodeID}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, mermaid.GenerateMermaid(doc, overlay))
}

func wantWait(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	return v
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestError is a malformed request body.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func statusOf(err error) int {
	var (
		reqErr   *requestError
		parseErr *domain.ParseError
		loadErr  *domain.LoadFailure
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, editor.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &reqErr), errors.As(err, &parseErr), errors.Is(err, domain.ErrFollowUpIndex),
		errors.Is(err, editor.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPhaseRejected), errors.Is(err, domain.ErrNoPreview):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNodeNotFound), errors.Is(err, domain.ErrNotValidated),
		len(schema.Violations(err)) > 0:
		return http.StatusUnprocessableEntity
	case errors.As(err, &loadErr):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
