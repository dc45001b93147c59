package runtime

import (
	"log/slog"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/graph"
	"github.com/aretw0/emergence/pkg/ports"
)

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithLogger sets the structured logger for the machine.
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) MachineOption {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithPlayer sets the sequence player. Defaults to one that completes immediately.
func WithPlayer(p ports.SequencePlayer) MachineOption {
	return func(m *Machine) {
		m.player = p
	}
}

// WithStore lets the caller supply the graph store, e.g. to inspect it in tests.
func WithStore(s *graph.Store) MachineOption {
	return func(m *Machine) {
		m.store = s
	}
}

// WithSessionID tags events and snapshots with the session identifier.
func WithSessionID(id string) MachineOption {
	return func(m *Machine) {
		m.sessionID = id
	}
}
