package emergence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/emergence/internal/logging"
	"github.com/aretw0/emergence/internal/runtime"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/graph"
	"github.com/aretw0/emergence/pkg/ports"
)

// Version is the library version reported by the CLI.
const Version = "0.1.0"

// Engine is the high-level entry point for the Emergence library.
// It binds a document source to the presentation runtime and creates sessions.
type Engine struct {
	source ports.DocumentSource
	player ports.SequencePlayer
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	Name   string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks for every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPlayer sets the player for the visual sequences. By default sequences complete
// immediately.
func WithPlayer(p ports.SequencePlayer) Option {
	return func(e *Engine) {
		e.player = p
	}
}

// WithName labels the engine in logs.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes an Engine over the given document source.
func New(source ports.DocumentSource, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("document source is required")
	}
	eng := &Engine{source: source}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("document", eng.Name)
	}
	return eng, nil
}

// NewSession creates a presentation session in the Intro phase. Call Start to load.
func (e *Engine) NewSession(id string) *Session {
	opts := []runtime.MachineOption{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithSessionID(id),
	}
	if e.player != nil {
		opts = append(opts, runtime.WithPlayer(e.player))
	}
	return &Session{machine: runtime.NewMachine(e.source, opts...)}
}

// Document fetches the current document from the source.
func (e *Engine) Document(ctx context.Context) (*domain.Document, error) {
	return e.source.Fetch(ctx)
}

// Inspect fetches the document and reports reachability and dangling references.
func (e *Engine) Inspect(ctx context.Context) (graph.Report, error) {
	doc, err := e.source.Fetch(ctx)
	if err != nil {
		return graph.Report{}, err
	}
	return graph.Inspect(doc), nil
}

// Watch returns a channel that signals when the document changes.
// Returns error if the source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.source.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current source does not support watching")
}

// Source returns the underlying document source.
func (e *Engine) Source() ports.DocumentSource {
	return e.source
}

// Session is one presentation of the document. It is safe for concurrent use.
type Session struct {
	machine *runtime.Machine
}

var _ ports.Presenter = (*Session)(nil)

// ID returns the session identifier.
func (s *Session) ID() string { return s.machine.SessionID() }

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase { return s.machine.Phase() }

// Transitioning reports whether a sequence is in flight.
func (s *Session) Transitioning() bool { return s.machine.Transitioning() }

// LoadError returns the cause of the last load failure, or nil.
func (s *Session) LoadError() error { return s.machine.LoadError() }

// History returns the visited node ids, oldest first.
func (s *Session) History() []string { return s.machine.Store().History() }

// Start requests the document and plays the introduction.
func (s *Session) Start(ctx context.Context) error { return s.machine.Start(ctx) }

// Activate starts the transition out of the waiting phase.
func (s *Session) Activate(ctx context.Context) error { return s.machine.Activate(ctx) }

// Select follows the follow-up at index of the current node.
func (s *Session) Select(ctx context.Context, index int) error {
	return s.machine.Select(ctx, index)
}

// ReturnToOrigin tears down the graph view and starts over from the intro.
func (s *Session) ReturnToOrigin(ctx context.Context) error { return s.machine.ReturnToOrigin(ctx) }

// Retry re-issues the document load after a failure.
func (s *Session) Retry(ctx context.Context) error { return s.machine.Retry(ctx) }

// Reload refetches the document, keeping the current node when it still exists.
func (s *Session) Reload(ctx context.Context) error { return s.machine.Reload(ctx) }

// DisplayModel returns what should be shown for the current node.
func (s *Session) DisplayModel() (*domain.DisplayModel, error) { return s.machine.DisplayModel() }

// Preview swaps in a candidate document until Commit or Revert.
func (s *Session) Preview(ctx context.Context, doc *domain.Document) error {
	return s.machine.Preview(ctx, doc)
}

// Commit keeps the previewed document.
func (s *Session) Commit(ctx context.Context) error { return s.machine.Commit(ctx) }

// Revert restores the document and position from before the preview.
func (s *Session) Revert(ctx context.Context) error { return s.machine.Revert(ctx) }

// Previewing reports whether a candidate document is active.
func (s *Session) Previewing() bool { return s.machine.Store().Previewing() }

// Snapshot captures the persistable state of the session.
func (s *Session) Snapshot() *domain.Snapshot { return s.machine.Snapshot() }

// Restore rebuilds the session from a snapshot.
func (s *Session) Restore(ctx context.Context, snap *domain.Snapshot) error {
	return s.machine.Restore(ctx, snap)
}

// Wait blocks until no sequence is in flight.
func (s *Session) Wait() { s.machine.Wait() }

// Close cancels in-flight sequences and waits for them to stop.
func (s *Session) Close() error { return s.machine.Close() }
