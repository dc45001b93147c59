package domain

// Phase is a state of the presentation state machine.
type Phase string

const (
	PhaseIntro      Phase = "intro"       // document load pending
	PhaseLoadFailed Phase = "load_failed" // load failed, retry available
	PhaseEmerging   Phase = "emerging"    // intro sequence playing
	PhaseWaiting    Phase = "waiting"     // waiting for activation
	PhaseBursting   Phase = "bursting"    // transition sequence playing
	PhaseExpanded   Phase = "expanded"    // graph view
)

// Sequence names a visual sequence played by the external player.
type Sequence string

const (
	SequenceEmergence Sequence = "emergence"
	SequenceBurst     Sequence = "burst"
	SequenceReveal    Sequence = "reveal"
	SequenceTeardown  Sequence = "teardown"
)

// Snapshot is the persistable part of a presentation session.
// It references nodes by identifier only.
type Snapshot struct {
	SessionID     string   `json:"session_id"`
	Phase         Phase    `json:"phase"`
	CurrentNodeID string   `json:"current_node_id,omitempty"`
	History       []string `json:"history,omitempty"`
	Previewing    bool     `json:"previewing,omitempty"`
}

// NewSnapshot creates an empty snapshot in the intro phase.
func NewSnapshot(sessionID string) *Snapshot {
	return &Snapshot{
		SessionID: sessionID,
		Phase:     PhaseIntro,
	}
}
