package runtime

import (
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/media"
)

// Present builds the display model for a node. The answer is passed through untouched.
func Present(node *domain.Node) *domain.DisplayModel {
	labels := make([]string, 0, len(node.FollowUps))
	for _, fu := range node.FollowUps {
		labels = append(labels, fu.Prompt)
	}
	return &domain.DisplayModel{
		NodeID:         node.ID,
		Question:       node.Question,
		Answer:         node.Answer,
		MediaBlocks:    media.Render(node.Media),
		FollowUpLabels: labels,
		Terminal:       node.IsTerminal(),
	}
}
