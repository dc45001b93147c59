package graph

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/emergence/internal/logging"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/schema"
)

// position is the part of the store that a preview can roll back.
type position struct {
	doc       *domain.Document
	currentID string
	history   []string
}

// Store owns the authoritative Document and the current position in it.
// The document is replaced wholesale, never patched. Moves go through a Navigator.
type Store struct {
	mu      sync.RWMutex
	pos     position
	saved   *position // authoritative state while a preview is active
	logger  *slog.Logger
	version uint64
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger used for load and preview events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty store. Use Load before any lookup.
func NewStore(opts ...Option) *Store {
	s := &Store{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load makes doc authoritative and seeds the current node to its start node.
// The document must satisfy the schema; otherwise ErrNotValidated is returned and the
// store is left untouched. Loading discards any active preview.
func (s *Store) Load(doc *domain.Document) error {
	if err := schema.ValidateDocument(doc); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotValidated, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = position{doc: doc, currentID: doc.StartNode}
	s.saved = nil
	s.version++
	s.logger.Debug("document loaded", "start_node", doc.StartNode, "nodes", len(doc.Nodes))
	return nil
}

// Loaded reports whether a document is present.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pos.doc != nil
}

// Document returns the active document (the candidate while previewing).
func (s *Store) Document() (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pos.doc == nil {
		return nil, domain.ErrNotLoaded
	}
	return s.pos.doc, nil
}

// Node looks up a node of the active document.
func (s *Store) Node(id string) (*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pos.doc == nil {
		return nil, domain.ErrNotLoaded
	}
	n, ok := s.pos.doc.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id)
	}
	return n, nil
}

// Current returns the node at the current position.
func (s *Store) Current() (*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pos.doc == nil {
		return nil, domain.ErrNotLoaded
	}
	n, ok := s.pos.doc.Node(s.pos.currentID)
	if !ok {
		// Load and GoTo both check existence before committing.
		return nil, fmt.Errorf("%w: current node %q", domain.ErrNodeNotFound, s.pos.currentID)
	}
	return n, nil
}

// CurrentID returns the identifier of the current node, or "" before Load.
func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pos.currentID
}

// History returns a copy of the nodes entered through the Navigator since Load.
func (s *Store) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.pos.history))
	copy(out, s.pos.history)
	return out
}

// Version increments every time the active document is replaced.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Reset clears the store to its uninitialized state, dropping any preview.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = position{}
	s.saved = nil
	s.version++
}

// Preview swaps in a candidate document, keeping the authoritative one for Revert.
// Previewing again replaces the candidate but keeps the original authoritative state.
func (s *Store) Preview(doc *domain.Document) error {
	if err := schema.ValidateDocument(doc); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotValidated, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		prev := s.pos
		prev.history = append([]string(nil), s.pos.history...)
		s.saved = &prev
	}
	s.pos = position{doc: doc, currentID: doc.StartNode}
	s.version++
	s.logger.Debug("preview started", "start_node", doc.StartNode)
	return nil
}

// Previewing reports whether a candidate document is active.
func (s *Store) Previewing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saved != nil
}

// Commit makes the previewed document authoritative.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return domain.ErrNoPreview
	}
	s.saved = nil
	s.logger.Debug("preview committed")
	return nil
}

// Revert restores the document and position that were active before Preview.
func (s *Store) Revert() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return domain.ErrNoPreview
	}
	s.pos = *s.saved
	s.saved = nil
	s.version++
	s.logger.Debug("preview reverted")
	return nil
}

// move commits a new position after checking the target exists.
func (s *Store) move(targetID string) (*domain.Node, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos.doc == nil {
		return nil, "", domain.ErrNotLoaded
	}
	from := s.pos.currentID
	n, ok := s.pos.doc.Node(targetID)
	if !ok {
		return nil, from, &domain.DanglingReferenceError{FromNodeID: from, TargetID: targetID}
	}
	s.pos.currentID = targetID
	s.pos.history = append(s.pos.history, targetID)
	return n, from, nil
}

// place sets position and history in one step, checking that every id exists.
func (s *Store) place(currentID string, history []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos.doc == nil {
		return domain.ErrNotLoaded
	}
	if _, ok := s.pos.doc.Node(currentID); !ok {
		return &domain.DanglingReferenceError{TargetID: currentID}
	}
	for _, id := range history {
		if _, ok := s.pos.doc.Node(id); !ok {
			return &domain.DanglingReferenceError{TargetID: id}
		}
	}
	s.pos.currentID = currentID
	s.pos.history = append([]string(nil), history...)
	return nil
}
