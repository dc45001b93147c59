package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPhaseChange        EventType = "phase_change"
	EventNodeEnter          EventType = "node_enter"
	EventNavigationRejected EventType = "navigation_rejected"
	EventLoadFailed         EventType = "load_failed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// PhaseEvent represents a phase transition.
type PhaseEvent struct {
	EventBase
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

// NodeEvent represents entry into a node, or a rejected move towards one.
type NodeEvent struct {
	EventBase
	NodeID     string `json:"node_id"`
	FromNodeID string `json:"from_node_id,omitempty"`
	Err        error  `json:"-"`
}

// LoadEvent represents a failed document load.
type LoadEvent struct {
	EventBase
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the goroutine that performed the transition.
type LifecycleHooks struct {
	OnPhaseChange        func(context.Context, *PhaseEvent)
	OnNodeEnter          func(context.Context, *NodeEvent)
	OnNavigationRejected func(context.Context, *NodeEvent)
	OnLoadFailed         func(context.Context, *LoadEvent)
}
