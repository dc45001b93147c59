package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/emergence/pkg/domain"
	contentgraph "github.com/aretw0/emergence/pkg/graph"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of the document.
// Shapes: the start node is a circle, terminal nodes are stadiums, other nodes
// rectangles. Follow-ups to missing nodes are drawn dotted towards a hexagon marked
// as missing. Overlay styles (visited/current) are applied if provided.
func GenerateMermaid(doc *domain.Document, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if doc == nil {
		return sb.String()
	}

	report := contentgraph.Inspect(doc)
	dangling := make(map[string]bool, len(report.Dangling))
	for _, e := range report.Dangling {
		dangling[e.To] = true
	}

	for _, id := range doc.NodeIDs() {
		node, ok := doc.Node(id)
		if !ok {
			continue
		}
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case id == doc.StartNode:
			opener, closer = "((", "))"
		case node.IsTerminal():
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.Question), closer)

		for _, fu := range node.FollowUps {
			arrow := fmt.Sprintf("-- \"%s\" -->", escapeLabel(fu.Prompt))
			if dangling[fu.NextNodeID] {
				arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(fu.Prompt))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(fu.NextNodeID))
		}
	}

	if len(dangling) > 0 {
		sb.WriteString("\n    %% Missing Nodes\n")
		sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-dasharray:4 2,color:#000;\n")
		written := make(map[string]bool, len(dangling))
		for _, e := range report.Dangling {
			if written[e.To] {
				continue
			}
			written[e.To] = true
			safeID := sanitizeMermaidID(e.To)
			fmt.Fprintf(&sb, "    %s{{\"%s (missing)\"}}\n", safeID, escapeLabel(e.To))
			fmt.Fprintf(&sb, "    class %s missing;\n", safeID)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			if _, ok := doc.Node(id); !ok {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if _, ok := doc.Node(overlay.CurrentNode); ok {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
