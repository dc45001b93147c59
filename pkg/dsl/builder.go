package dsl

import (
	"fmt"

	"github.com/aretw0/emergence/pkg/adapters/memory"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/schema"
)

// Builder manages the document construction.
type Builder struct {
	start string
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a builder whose document starts at start.
func New(start string) *Builder {
	return &Builder{
		start: start,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a node in the document.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID:        id,
			FollowUps: []domain.FollowUp{},
		},
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build validates the document. Follow-ups to missing nodes are allowed.
func (b *Builder) Build() (*domain.Document, error) {
	doc := &domain.Document{
		StartNode: b.start,
		Nodes:     make(map[string]*domain.Node, len(b.nodes)),
	}
	for _, id := range b.order {
		n := b.nodes[id].node
		n.FollowUps = append([]domain.FollowUp{}, n.FollowUps...)
		n.Media = append(domain.MediaList(nil), n.Media...)
		doc.Nodes[id] = &n
	}
	if err := schema.ValidateDocument(doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return doc, nil
}

// MustBuild is Build for documents known to be valid. It panics otherwise.
func (b *Builder) MustBuild() *domain.Document {
	doc, err := b.Build()
	if err != nil {
		panic(err)
	}
	return doc
}

// Source builds the document and serves it from memory.
func (b *Builder) Source() (*memory.Source, error) {
	doc, err := b.Build()
	if err != nil {
		return nil, err
	}
	return memory.NewSource(doc), nil
}
