package ports

import (
	"context"

	"github.com/aretw0/chatter/pkg/domain"
)

// NodeStore defines the interface for persisting the flow graph.
// The store is authoritative: editors reload from it after every mutation.
type NodeStore interface {
	// List returns every node in insertion order.
	List(ctx context.Context) ([]domain.Node, error)

	// Get retrieves a node. Returns domain.ErrNodeNotFound if it does not exist.
	Get(ctx context.Context, id string) (domain.Node, error)

	// Create inserts a node. Returns domain.ErrDuplicateID if the id is taken.
	Create(ctx context.Context, node domain.Node) error

	// Update replaces an existing node. Returns domain.ErrNodeNotFound if it does not exist.
	Update(ctx context.Context, node domain.Node) error

	// Delete removes a node. Returns domain.ErrNodeNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// SubmissionStore persists captured leads.
type SubmissionStore interface {
	// Save persists a submission.
	Save(ctx context.Context, sub *domain.Submission) error

	// List returns every submission, oldest first.
	List(ctx context.Context) ([]*domain.Submission, error)
}
