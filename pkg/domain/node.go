package domain

import "sort"

// Document is the complete content graph definition.
type Document struct {
	StartNode string           `json:"startNode" yaml:"startNode" mapstructure:"startNode"`
	Nodes     map[string]*Node `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
}

// Node is one question/answer unit of content.
type Node struct {
	// ID is filled from the map key when the document is decoded. It is not serialized.
	ID string `json:"-" yaml:"-" mapstructure:"-"`

	Question string `json:"question" yaml:"question" mapstructure:"question"`

	// Answer may embed lightweight markup. The engine treats it as opaque text.
	Answer string `json:"answer" yaml:"answer" mapstructure:"answer"`

	Media     MediaList  `json:"media,omitempty" yaml:"media,omitempty" mapstructure:"media"`
	FollowUps []FollowUp `json:"followUps" yaml:"followUps" mapstructure:"followUps"`
}

// FollowUp is a labeled directed edge. NextNodeID is not guaranteed to resolve.
type FollowUp struct {
	Prompt     string `json:"prompt" yaml:"prompt" mapstructure:"prompt"`
	NextNodeID string `json:"nextNodeId" yaml:"nextNodeId" mapstructure:"nextNodeId"`
}

// IsTerminal reports whether the node has no follow-ups.
func (n *Node) IsTerminal() bool {
	return len(n.FollowUps) == 0
}

// Node returns the node with the given id.
func (d *Document) Node(id string) (*Node, bool) {
	if d == nil || d.Nodes == nil {
		return nil, false
	}
	n, ok := d.Nodes[id]
	return n, ok && n != nil
}

// NodeIDs returns all node identifiers in sorted order.
func (d *Document) NodeIDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids
}
