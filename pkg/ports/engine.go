package ports

import (
	"context"

	"github.com/aretw0/emergence/pkg/domain"
)

// SequencePlayer plays an externally owned visual sequence.
// Play blocks until the sequence completes or ctx is canceled.
type SequencePlayer interface {
	Play(ctx context.Context, seq domain.Sequence) error
}

// Presenter is the session-facing surface of the presentation state machine.
// Adapters (HTTP, MCP, terminal) drive sessions through it.
type Presenter interface {
	// Phase returns the current phase.
	Phase() domain.Phase

	// Start requests the document and plays the introduction.
	Start(ctx context.Context) error

	// Activate starts the transition out of the waiting phase.
	Activate(ctx context.Context) error

	// Select follows the follow-up at index of the current node.
	Select(ctx context.Context, index int) error

	// ReturnToOrigin tears down the graph view and reloads from the intro phase.
	ReturnToOrigin(ctx context.Context) error

	// Retry re-issues the document load after a failure.
	Retry(ctx context.Context) error

	// DisplayModel returns what should be shown for the current node.
	DisplayModel() (*domain.DisplayModel, error)

	// Preview swaps in a candidate document; Commit keeps it and Revert drops it.
	Preview(ctx context.Context, doc *domain.Document) error
	Commit(ctx context.Context) error
	Revert(ctx context.Context) error

	// Snapshot captures the persistable state of the session.
	Snapshot() *domain.Snapshot

	// Restore rebuilds the session from a snapshot.
	Restore(ctx context.Context, snap *domain.Snapshot) error

	// Wait blocks until no sequence is in flight.
	Wait()
}
