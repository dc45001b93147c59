package dsl

import "github.com/aretw0/emergence/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node domain.Node
}

// Question sets the heading shown for the node.
func (n *NodeBuilder) Question(text string) *NodeBuilder {
	n.node.Question = text
	return n
}

// Answer sets the body. It may contain markdown.
func (n *NodeBuilder) Answer(text string) *NodeBuilder {
	n.node.Answer = text
	return n
}

// FollowUp adds a labeled edge to target. The target does not need to exist.
func (n *NodeBuilder) FollowUp(prompt, target string) *NodeBuilder {
	n.node.FollowUps = append(n.node.FollowUps, domain.FollowUp{
		Prompt:     prompt,
		NextNodeID: target,
	})
	return n
}

// Media appends media items in display order.
func (n *NodeBuilder) Media(items ...domain.MediaItem) *NodeBuilder {
	n.node.Media = append(n.node.Media, items...)
	return n
}

// Video appends a video.
func (n *NodeBuilder) Video(url, title string) *NodeBuilder {
	return n.Media(domain.Video{URL: url, Title: title})
}

// Link appends a link preview.
func (n *NodeBuilder) Link(url, title string) *NodeBuilder {
	return n.Media(domain.Link{URL: url, Title: title})
}

// Image appends an image.
func (n *NodeBuilder) Image(url, title string) *NodeBuilder {
	return n.Media(domain.Image{URL: url, Title: title})
}

// Audio appends an audio clip.
func (n *NodeBuilder) Audio(url, title string) *NodeBuilder {
	return n.Media(domain.Audio{URL: url, Title: title})
}
