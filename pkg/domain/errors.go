package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNotLoaded is returned when the graph is used before a document was loaded.
var ErrNotLoaded = errors.New("no document loaded")

// ErrNotValidated is returned when an unvalidated document is handed to the store.
var ErrNotValidated = errors.New("document has not passed validation")

// ErrNodeNotFound is returned by lookups for identifiers absent from the document.
var ErrNodeNotFound = errors.New("node not found")

// ErrPhaseRejected is returned when an action is not accepted in the current phase.
var ErrPhaseRejected = errors.New("action not accepted in current phase")

// ErrFollowUpIndex is returned when a selection index is out of range.
var ErrFollowUpIndex = errors.New("follow-up index out of range")

// ErrNoPreview is returned when committing or reverting without an active preview.
var ErrNoPreview = errors.New("no preview active")

// ParseError reports input that is not well-formed structured data.
type ParseError struct {
	Format string // "json" or "yaml"
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Rule names one structural check of the document contract.
type Rule string

const (
	RuleDocumentShape   Rule = "document-shape"    // payload is not an object
	RuleStartNode       Rule = "start-node"        // startNode is a non-empty string
	RuleNodesMapping    Rule = "nodes-mapping"     // nodes is a non-null mapping
	RuleStartNodeExists Rule = "start-node-exists" // nodes[startNode] exists
	RuleNodeFields      Rule = "node-fields"       // question, answer, followUps
	RuleFollowUpFields  Rule = "follow-up-fields"  // prompt, nextNodeId
)

// StructuralError reports a well-formed document that violates the contract.
// FollowUp is -1 when the violation is not about a specific follow-up.
type StructuralError struct {
	Rule     Rule
	NodeID   string
	FollowUp int
	Reason   string
}

func (e *StructuralError) Error() string {
	switch {
	case e.NodeID != "" && e.FollowUp >= 0:
		return fmt.Sprintf("%s: node %q follow-up %d: %s", e.Rule, e.NodeID, e.FollowUp, e.Reason)
	case e.NodeID != "":
		return fmt.Sprintf("%s: node %q: %s", e.Rule, e.NodeID, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", e.Rule, e.Reason)
	}
}

// DanglingReferenceError reports a navigation target that does not exist.
type DanglingReferenceError struct {
	FromNodeID string
	TargetID   string
}

func (e *DanglingReferenceError) Error() string {
	if e.FromNodeID == "" {
		return fmt.Sprintf("dangling reference: node %q does not exist", e.TargetID)
	}
	return fmt.Sprintf("dangling reference from %q: node %q does not exist", e.FromNodeID, e.TargetID)
}

// Is lets errors.Is(err, ErrNodeNotFound) match dangling references.
func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrNodeNotFound
}

// LoadFailure reports that the document source could not provide a valid document.
type LoadFailure struct {
	Source string
	Err    error
}

func (e *LoadFailure) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load failed: %v", e.Err)
	}
	return fmt.Sprintf("load %s failed: %v", e.Source, e.Err)
}

func (e *LoadFailure) Unwrap() error { return e.Err }
