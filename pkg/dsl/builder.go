package dsl

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/chatter/pkg/adapters/memory"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/editor"
)

// Builder manages the flow construction. Nodes keep the order they were added in.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new flow builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new rich node in the flow.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID:           id,
			ResponseType: domain.ResponseRich,
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Welcome configures the entry node.
func (b *Builder) Welcome(message string) *NodeBuilder {
	return b.Add(domain.WelcomeNodeID).Rich(message)
}

// Nodes returns the built nodes in order.
func (b *Builder) Nodes() []domain.Node {
	out := make([]domain.Node, len(b.order))
	for i, id := range b.order {
		out[i] = b.nodes[id].Build()
	}
	return out
}

// Build compiles the flow into an in-memory NodeStore.
func (b *Builder) Build() (*memory.NodeStore, error) {
	store, err := memory.NewNodeStore(b.Nodes()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory store: %w", err)
	}
	return store, nil
}

// Seed saves the flow through a loaded editor, so every node is validated.
// Nodes that already exist are left alone, except core nodes that still hold their
// default message, which take the built content. It returns how many nodes were written.
func (b *Builder) Seed(ctx context.Context, ed *editor.Editor) (int, error) {
	written := 0
	for _, n := range b.Nodes() {
		existing, ok := ed.Graph().GetNode(n.ID)
		if ok && !isPristineCore(existing) {
			continue
		}

		draft := editor.DraftFromNode(n)
		draft.Create = !ok
		if _, err := ed.SaveNode(ctx, draft); err != nil {
			if errors.Is(err, domain.ErrDuplicateID) {
				continue
			}
			return written, fmt.Errorf("failed to seed node %s: %w", n.ID, err)
		}
		written++
	}
	return written, nil
}

func isPristineCore(n domain.Node) bool {
	switch n.ID {
	case domain.WelcomeNodeID:
		return n.Message == domain.DefaultWelcomeMessage && len(n.Options) == 0
	case domain.ShowFormNodeID:
		return n.Message == domain.DefaultShowFormMessage && len(n.Options) == 0
	}
	return false
}
