package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/schema"
)

// Source implements ports.DocumentSource and ports.Watchable over an in-memory document.
// Set replaces the document and notifies watchers, which is handy for tests and for
// documents submitted through an editor.
type Source struct {
	mu       sync.RWMutex
	doc      *domain.Document
	err      error
	watchers []chan struct{}
}

// NewSource creates a source serving doc.
func NewSource(doc *domain.Document) *Source {
	return &Source{doc: doc}
}

// NewSourceFromBytes parses and validates JSON text into a source.
func NewSourceFromBytes(data []byte) (*Source, error) {
	res, err := schema.ValidateBytes(data)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return NewSource(res.Document), nil
}

// Fetch returns the current document, or the configured failure.
func (s *Source) Fetch(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, &domain.LoadFailure{Source: "memory", Err: s.err}
	}
	if s.doc == nil {
		return nil, &domain.LoadFailure{Source: "memory", Err: domain.ErrNotLoaded}
	}
	if err := schema.ValidateDocument(s.doc); err != nil {
		return nil, &domain.LoadFailure{Source: "memory", Err: fmt.Errorf("%w: %w", domain.ErrNotValidated, err)}
	}
	return s.doc, nil
}

// Set replaces the document, clears any failure and notifies watchers.
func (s *Source) Set(doc *domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.err = nil

	// Sends never block, and holding the lock keeps them away from close.
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Fail makes every Fetch return err until Set or Fail(nil) is called.
func (s *Source) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Watch returns a channel signaled on every Set. It is closed when ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}
