package graph

import (
	"errors"

	"github.com/aretw0/emergence/pkg/domain"
)

// Edge is one follow-up of a node, identified by its position.
type Edge struct {
	From   string `json:"from"`
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
	To     string `json:"to"`
}

// Report summarizes the shape of a document. It is informational: loading stays
// lenient about dangling references.
type Report struct {
	StartNode   string   `json:"startNode"`
	Nodes       int      `json:"nodes"`
	Edges       int      `json:"edges"`
	Reachable   []string `json:"reachable"`
	Unreachable []string `json:"unreachable"`
	Terminal    []string `json:"terminal"`
	Dangling    []Edge   `json:"dangling"`
}

// Inspect walks doc breadth-first from the start node in follow-up order.
func Inspect(doc *domain.Document) Report {
	r := Report{
		Reachable:   []string{},
		Unreachable: []string{},
		Terminal:    []string{},
		Dangling:    []Edge{},
	}
	if doc == nil {
		return r
	}
	r.StartNode = doc.StartNode
	r.Nodes = len(doc.Nodes)

	ids := doc.NodeIDs()
	for _, id := range ids {
		n, ok := doc.Node(id)
		if !ok {
			continue
		}
		r.Edges += len(n.FollowUps)
		if n.IsTerminal() {
			r.Terminal = append(r.Terminal, id)
		}
		for i, fu := range n.FollowUps {
			if _, ok := doc.Node(fu.NextNodeID); !ok {
				r.Dangling = append(r.Dangling, Edge{From: id, Index: i, Prompt: fu.Prompt, To: fu.NextNodeID})
			}
		}
	}

	seen := make(map[string]bool, len(doc.Nodes))
	if _, ok := doc.Node(doc.StartNode); ok {
		queue := []string{doc.StartNode}
		seen[doc.StartNode] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			r.Reachable = append(r.Reachable, id)

			n, _ := doc.Node(id)
			for _, fu := range n.FollowUps {
				if seen[fu.NextNodeID] {
					continue
				}
				if _, ok := doc.Node(fu.NextNodeID); !ok {
					continue
				}
				seen[fu.NextNodeID] = true
				queue = append(queue, fu.NextNodeID)
			}
		}
	}

	for _, id := range ids {
		if !seen[id] {
			r.Unreachable = append(r.Unreachable, id)
		}
	}
	return r
}

// Err joins a *domain.DanglingReferenceError for every dangling edge, or returns nil.
func (r Report) Err() error {
	if len(r.Dangling) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Dangling))
	for _, e := range r.Dangling {
		errs = append(errs, &domain.DanglingReferenceError{FromNodeID: e.From, TargetID: e.To})
	}
	return errors.Join(errs...)
}
