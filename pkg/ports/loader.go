package ports

import (
	"context"

	"github.com/aretw0/emergence/pkg/domain"
)

// DocumentSource defines how the engine obtains the authored document.
// Implementations return a validated Document, or an error the machine reports as a load failure.
type DocumentSource interface {
	// Fetch retrieves and validates the document.
	Fetch(ctx context.Context) (*domain.Document, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload while authoring.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying document changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
