package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/emergence/internal/logging"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/graph"
	"github.com/aretw0/emergence/pkg/ports"
)

// Machine sequences a presentation session:
//
//	Intro -> Emerging -> Waiting -> Bursting -> Expanded -> Intro ...
//	Intro -> LoadFailed -> (Retry) -> Intro
//
// Actions outside their phase return ErrPhaseRejected. Sequences run on a background
// goroutine; while one is in flight the transitioning flag is set and Start, Retry,
// Activate and ReturnToOrigin are ignored.
type Machine struct {
	mu            sync.Mutex
	phase         domain.Phase
	transitioning bool
	loadErr       error

	source    ports.DocumentSource
	player    ports.SequencePlayer
	store     *graph.Store
	nav       *graph.Navigator
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	sessionID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMachine creates a machine in the Intro phase. Call Start to begin loading.
func NewMachine(source ports.DocumentSource, opts ...MachineOption) *Machine {
	m := &Machine{
		phase:  domain.PhaseIntro,
		source: source,
		player: instantPlayer{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = graph.NewStore(graph.WithLogger(m.logger))
	}
	if m.sessionID != "" {
		m.logger = m.logger.With("session_id", m.sessionID)
	}
	m.nav = graph.NewNavigator(m.store,
		graph.WithNavigatorHooks(m.hooks),
		graph.WithNavigatorLogger(m.logger),
	)
	m.ctx, m.cancel = context.WithCancel(graph.ContextWithSessionID(context.Background(), m.sessionID))
	return m
}

// Phase returns the current phase.
func (m *Machine) Phase() domain.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Transitioning reports whether a sequence is in flight.
func (m *Machine) Transitioning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitioning
}

// LoadError returns the cause of the last load failure, or nil.
func (m *Machine) LoadError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadErr
}

// Store exposes the graph store for read-only inspection.
func (m *Machine) Store() *graph.Store {
	return m.store
}

// SessionID returns the identifier the machine was created with.
func (m *Machine) SessionID() string {
	return m.sessionID
}

// Start requests the document from the source. Accepted only in Intro.
func (m *Machine) Start(ctx context.Context) error {
	return m.beginLoad(ctx, domain.PhaseIntro)
}

// Retry re-issues the load after a failure. Accepted only in LoadFailed.
func (m *Machine) Retry(ctx context.Context) error {
	return m.beginLoad(ctx, domain.PhaseLoadFailed)
}

func (m *Machine) beginLoad(ctx context.Context, want domain.Phase) error {
	m.mu.Lock()
	if m.phase != want {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("%w: load in %s", domain.ErrPhaseRejected, phase)
	}
	if m.transitioning {
		m.mu.Unlock()
		m.logger.Debug("load ignored, transition in flight")
		return nil
	}
	m.transitioning = true
	m.loadErr = nil
	m.mu.Unlock()

	if want == domain.PhaseLoadFailed {
		m.setPhase(ctx, domain.PhaseIntro)
	}
	m.run(m.loadSequence)
	return nil
}

// Activate starts the burst out of the waiting phase. Accepted only in Waiting.
func (m *Machine) Activate(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != domain.PhaseWaiting {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("%w: activate in %s", domain.ErrPhaseRejected, phase)
	}
	if m.transitioning {
		m.mu.Unlock()
		m.logger.Debug("activate ignored, transition in flight")
		return nil
	}
	m.transitioning = true
	m.mu.Unlock()

	m.setPhase(ctx, domain.PhaseBursting)
	m.run(m.burstSequence)
	return nil
}

// Select follows the follow-up at index of the current node. Accepted only in Expanded.
// A dangling target is reported as *domain.DanglingReferenceError and the view is unchanged.
func (m *Machine) Select(ctx context.Context, index int) error {
	m.mu.Lock()
	if m.phase != domain.PhaseExpanded || m.transitioning {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("%w: select in %s", domain.ErrPhaseRejected, phase)
	}
	m.mu.Unlock()

	_, err := m.nav.Select(m.eventCtx(ctx), index)
	return err
}

// ReturnToOrigin tears down the graph view, resets the store and reloads from Intro.
// Accepted only in Expanded.
func (m *Machine) ReturnToOrigin(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != domain.PhaseExpanded {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("%w: return in %s", domain.ErrPhaseRejected, phase)
	}
	if m.transitioning {
		m.mu.Unlock()
		m.logger.Debug("return ignored, transition in flight")
		return nil
	}
	m.transitioning = true
	m.mu.Unlock()

	m.store.Reset()
	m.setPhase(ctx, domain.PhaseIntro)
	m.run(func(ctx context.Context) {
		if !m.play(ctx, domain.SequenceTeardown) {
			return
		}
		m.loadSequence(ctx)
	})
	return nil
}

// DisplayModel returns the view of the current node. Available only in Expanded.
func (m *Machine) DisplayModel() (*domain.DisplayModel, error) {
	if phase := m.Phase(); phase != domain.PhaseExpanded {
		return nil, fmt.Errorf("%w: display in %s", domain.ErrPhaseRejected, phase)
	}
	node, err := m.store.Current()
	if err != nil {
		return nil, err
	}
	return Present(node), nil
}

// Reload fetches the document again and swaps it in without replaying any sequence.
// In Expanded the current node is kept when it still exists, otherwise the start node
// is entered. Reload is ignored while a transition is in flight, before a document
// was loaded, or while a preview is active so that Revert stays available.
func (m *Machine) Reload(ctx context.Context) error {
	m.mu.Lock()
	if m.transitioning || m.phase == domain.PhaseIntro || m.phase == domain.PhaseLoadFailed {
		m.mu.Unlock()
		return nil
	}
	if m.store.Previewing() {
		m.mu.Unlock()
		m.logger.Debug("reload skipped while previewing")
		return nil
	}
	m.transitioning = true
	phase := m.phase
	m.mu.Unlock()
	defer m.endTransition()

	doc, err := m.source.Fetch(ctx)
	if err != nil {
		m.logger.Warn("reload failed, keeping current document", "err", err)
		return toLoadFailure(err)
	}

	currentID := m.store.CurrentID()
	history := m.store.History()
	if err := m.store.Load(doc); err != nil {
		return &domain.LoadFailure{Err: err}
	}
	m.logger.Info("document reloaded", "nodes", len(doc.Nodes))

	if phase != domain.PhaseExpanded {
		return nil
	}
	if err := m.nav.Restore(currentID, keepExisting(doc, history)); err == nil {
		return nil
	}
	_, err = m.nav.GoTo(m.eventCtx(ctx), doc.StartNode)
	return err
}

// Preview swaps in a candidate document. In Expanded the view moves to its start node.
func (m *Machine) Preview(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	if m.transitioning {
		m.mu.Unlock()
		return fmt.Errorf("%w: preview during transition", domain.ErrPhaseRejected)
	}
	phase := m.phase
	m.mu.Unlock()

	if err := m.store.Preview(doc); err != nil {
		return err
	}
	if phase == domain.PhaseExpanded {
		if _, err := m.nav.GoTo(m.eventCtx(ctx), doc.StartNode); err != nil {
			return err
		}
	}
	return nil
}

// Commit makes the previewed document authoritative.
func (m *Machine) Commit(ctx context.Context) error {
	return m.store.Commit()
}

// Revert restores the document and position active before Preview.
func (m *Machine) Revert(ctx context.Context) error {
	return m.store.Revert()
}

// Snapshot captures the persistable state of the session.
func (m *Machine) Snapshot() *domain.Snapshot {
	m.mu.Lock()
	phase := m.phase
	m.mu.Unlock()

	snap := domain.NewSnapshot(m.sessionID)
	snap.Phase = phase
	snap.Previewing = m.store.Previewing()
	if phase == domain.PhaseExpanded {
		snap.CurrentNodeID = m.store.CurrentID()
		snap.History = m.store.History()
	}
	return snap
}

// Restore rebuilds a session from a snapshot. A snapshot taken in Expanded is placed
// directly at its saved node, or at the start node when that node is gone; any other
// snapshot starts a fresh load. Accepted only in Intro.
func (m *Machine) Restore(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil || snap.Phase != domain.PhaseExpanded {
		return m.Start(ctx)
	}

	m.mu.Lock()
	if m.transitioning || m.phase != domain.PhaseIntro {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("%w: restore in %s", domain.ErrPhaseRejected, phase)
	}
	m.transitioning = true
	m.mu.Unlock()
	defer m.endTransition()

	doc, err := m.source.Fetch(ctx)
	if err != nil {
		return toLoadFailure(err)
	}
	if err := m.store.Load(doc); err != nil {
		return &domain.LoadFailure{Err: err}
	}
	if err := m.nav.Restore(snap.CurrentNodeID, keepExisting(doc, snap.History)); err != nil {
		m.logger.Warn("saved node no longer exists, restarting at start node",
			"node_id", snap.CurrentNodeID, "err", err)
	}
	m.setPhase(ctx, domain.PhaseExpanded)
	return nil
}

// Wait blocks until no sequence is in flight.
func (m *Machine) Wait() {
	m.wg.Wait()
}

// Close cancels in-flight sequences and waits for them to stop.
func (m *Machine) Close() error {
	m.cancel()
	m.wg.Wait()
	return nil
}

// run executes fn on a background goroutine and clears the transition flag afterwards.
func (m *Machine) run(fn func(ctx context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.endTransition()
		fn(m.ctx)
	}()
}

func (m *Machine) endTransition() {
	m.mu.Lock()
	m.transitioning = false
	m.mu.Unlock()
}

// loadSequence: Intro -> Emerging -> Waiting, or Intro -> LoadFailed.
func (m *Machine) loadSequence(ctx context.Context) {
	doc, err := m.source.Fetch(ctx)
	if err == nil {
		if lerr := m.store.Load(doc); lerr != nil {
			err = &domain.LoadFailure{Err: lerr}
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.failLoad(ctx, toLoadFailure(err))
		return
	}

	m.setPhase(ctx, domain.PhaseEmerging)
	if !m.play(ctx, domain.SequenceEmergence) {
		return
	}
	m.setPhase(ctx, domain.PhaseWaiting)
}

// burstSequence: Bursting -> Expanded, entering the start node.
func (m *Machine) burstSequence(ctx context.Context) {
	if !m.play(ctx, domain.SequenceBurst) {
		return
	}
	if !m.play(ctx, domain.SequenceReveal) {
		return
	}

	doc, err := m.store.Document()
	if err != nil {
		m.failLoad(ctx, &domain.LoadFailure{Err: err})
		return
	}
	if _, err := m.nav.GoTo(ctx, doc.StartNode); err != nil {
		m.failLoad(ctx, &domain.LoadFailure{Err: err})
		return
	}
	m.setPhase(ctx, domain.PhaseExpanded)
}

// play runs one sequence. It returns false when the machine is closing.
// Player failures are logged and the sequence is treated as complete.
func (m *Machine) play(ctx context.Context, seq domain.Sequence) bool {
	err := m.player.Play(ctx, seq)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		m.logger.Warn("sequence failed", "sequence", seq, "err", err)
	}
	return true
}

func (m *Machine) failLoad(ctx context.Context, err error) {
	m.mu.Lock()
	m.loadErr = err
	m.mu.Unlock()

	m.logger.Warn("document load failed", "err", err)
	m.setPhase(ctx, domain.PhaseLoadFailed)
	if m.hooks.OnLoadFailed != nil {
		m.hooks.OnLoadFailed(m.eventCtx(ctx), &domain.LoadEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventLoadFailed,
				SessionID: m.sessionID,
			},
			Err: err,
		})
	}
}

func (m *Machine) setPhase(ctx context.Context, to domain.Phase) {
	m.mu.Lock()
	from := m.phase
	m.phase = to
	m.mu.Unlock()

	if from == to {
		return
	}
	m.logger.Debug("phase changed", "from", from, "to", to)
	if m.hooks.OnPhaseChange != nil {
		m.hooks.OnPhaseChange(m.eventCtx(ctx), &domain.PhaseEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventPhaseChange,
				SessionID: m.sessionID,
			},
			From: from,
			To:   to,
		})
	}
}

func (m *Machine) eventCtx(ctx context.Context) context.Context {
	if graph.SessionIDFrom(ctx) != "" || m.sessionID == "" {
		return ctx
	}
	return graph.ContextWithSessionID(ctx, m.sessionID)
}

func toLoadFailure(err error) error {
	var failure *domain.LoadFailure
	if errors.As(err, &failure) {
		return err
	}
	return &domain.LoadFailure{Err: err}
}

func keepExisting(doc *domain.Document, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := doc.Node(id); ok {
			out = append(out, id)
		}
	}
	return out
}

type instantPlayer struct{}

func (instantPlayer) Play(ctx context.Context, _ domain.Sequence) error {
	return ctx.Err()
}
