package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/chatter/pkg/domain"
)

// NodeStore implements ports.NodeStore in memory.
// Safe for concurrent use.
type NodeStore struct {
	mu    sync.RWMutex
	nodes map[string]domain.Node
	order []string
}

// NewNodeStore creates an in-memory node store seeded with the given nodes in order.
func NewNodeStore(nodes ...domain.Node) (*NodeStore, error) {
	s := &NodeStore{nodes: make(map[string]domain.Node, len(nodes))}
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node missing ID")
		}
		if err := s.Create(context.Background(), n); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// List returns copies of all nodes in insertion order.
func (s *NodeStore) List(ctx context.Context) ([]domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].Clone())
	}
	return out, nil
}

// Get returns a copy so callers can't mutate stored nodes.
func (s *NodeStore) Get(ctx context.Context, id string) (domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return domain.Node{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return n.Clone(), nil
}

// Create inserts a node at the end of the order.
func (s *NodeStore) Create(ctx context.Context, node domain.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[node.ID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, node.ID)
	}
	s.nodes[node.ID] = node.Clone()
	s.order = append(s.order, node.ID)
	return nil
}

// Update replaces a node in place.
func (s *NodeStore) Update(ctx context.Context, node domain.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[node.ID]; !exists {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, node.ID)
	}
	s.nodes[node.ID] = node.Clone()
	return nil
}

// Delete removes a node.
func (s *NodeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[id]; !exists {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	delete(s.nodes, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// SubmissionStore implements ports.SubmissionStore in memory.
type SubmissionStore struct {
	mu   sync.RWMutex
	subs []domain.Submission
}

// NewSubmissionStore creates an empty in-memory submission store.
func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{}
}

// Save appends a copy of the submission.
func (s *SubmissionStore) Save(ctx context.Context, sub *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, *sub)
	return nil
}

// List returns copies of all submissions, oldest first.
func (s *SubmissionStore) List(ctx context.Context) ([]*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Submission, len(s.subs))
	for i := range s.subs {
		sub := s.subs[i]
		out[i] = &sub
	}
	return out, nil
}
