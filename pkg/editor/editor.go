// Package editor implements the authoring side of the flow: creating, updating and deleting
// nodes against an authoritative NodeStore while keeping the core nodes alive.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/aretw0/chatter/internal/logging"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
)

// LockKey is the distributed lock key guarding flow mutations.
const LockKey = "flow"

// DefaultLockTTL bounds how long a crashed replica can hold the flow lock.
const DefaultLockTTL = 30 * time.Second

// Editor mediates every authoring action. The store is authoritative:
// each successful mutation is followed by a full reload.
type Editor struct {
	store ports.NodeStore

	mu    sync.Mutex
	graph *domain.FlowGraph

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Editor.
type Option func(*Editor)

// WithLocker enables distributed locking of mutations.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Editor) {
		e.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Editor) {
		e.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// New creates an Editor over the given store. Call Load before editing.
func New(store ports.NodeStore, opts ...Option) *Editor {
	e := &Editor{
		store:   store,
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load reloads the whole graph from the store and persists any missing core node.
// It is idempotent: calling it twice creates nothing the second time.
func (e *Editor) Load(ctx context.Context) (*domain.FlowGraph, error) {
	var graph *domain.FlowGraph
	err := e.withLock(ctx, func(ctx context.Context) error {
		g, err := e.reload(ctx)
		if err != nil {
			return err
		}

		created := domain.EnsureCoreNodes(g)
		for _, n := range created {
			if err := e.store.Create(ctx, n); err != nil {
				return fmt.Errorf("failed to persist core node %s: %w", n.ID, err)
			}
			e.logger.Info("Created missing core node", "node_id", n.ID)
		}
		if len(created) > 0 {
			if g, err = e.reload(ctx); err != nil {
				return err
			}
		}
		graph = g.Clone()
		return nil
	})
	return graph, err
}

// Refresh rereads the store for display without taking the distributed lock.
// It falls back to Load only when a core node has gone missing.
func (e *Editor) Refresh(ctx context.Context) (*domain.FlowGraph, error) {
	e.mu.Lock()
	g, err := e.reload(ctx)
	healthy := err == nil && g.Has(domain.WelcomeNodeID) && g.Has(domain.ShowFormNodeID)
	var out *domain.FlowGraph
	if healthy {
		out = g.Clone()
	}
	e.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !healthy {
		return e.Load(ctx)
	}
	return out, nil
}

// Graph returns a copy of the last loaded graph, or nil before Load.
func (e *Editor) Graph() *domain.FlowGraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return nil
	}
	return e.graph.Clone()
}

// SaveNode creates or updates a node from a draft. The draft is never mutated.
func (e *Editor) SaveNode(ctx context.Context, d Draft) (domain.Node, error) {
	node, err := d.build()
	if err != nil {
		return domain.Node{}, err
	}

	err = e.withLock(ctx, func(ctx context.Context) error {
		staged, err := e.stage(ctx)
		if err != nil {
			return err
		}
		if d.Create {
			if err := staged.AddNode(node); err != nil {
				return err
			}
			if err := e.store.Create(ctx, node); err != nil {
				return fmt.Errorf("failed to create node %s: %w", node.ID, err)
			}
		} else {
			if err := staged.UpdateNode(node.ID, replaceWith(node)); err != nil {
				return err
			}
			if err := e.store.Update(ctx, node); err != nil {
				return fmt.Errorf("failed to update node %s: %w", node.ID, err)
			}
		}
		_, err = e.reload(ctx)
		return err
	})
	if err != nil {
		return domain.Node{}, err
	}

	e.logger.Debug("Saved node", "node_id", node.ID, "create", d.Create)
	return node, nil
}

// DeleteNode removes a node. Protected nodes are refused before the store is touched.
func (e *Editor) DeleteNode(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)

	return e.withLock(ctx, func(ctx context.Context) error {
		staged, err := e.stage(ctx)
		if err != nil {
			return err
		}
		if err := staged.RemoveNode(id); err != nil {
			return err
		}
		if err := e.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete node %s: %w", id, err)
		}
		_, err = e.reload(ctx)
		return err
	})
}

// AddOption appends an option to a rich node.
func (e *Editor) AddOption(ctx context.Context, nodeID string, opt domain.Option) (domain.Node, error) {
	opt = domain.Option{Text: strings.TrimSpace(opt.Text), Payload: strings.TrimSpace(opt.Payload)}
	if err := validateOption(0, opt); err != nil {
		return domain.Node{}, err
	}

	return e.mutateNode(ctx, nodeID, func(n domain.Node) (domain.NodePatch, error) {
		if n.ResponseType != domain.ResponseRich {
			return domain.NodePatch{}, &domain.ValidationError{Field: "options", Reason: "only rich nodes have options"}
		}
		opts := append(append([]domain.Option{}, n.Options...), opt)
		return domain.NodePatch{Options: &opts}, nil
	})
}

// RemoveOption drops the option at index. The remaining options keep their order.
func (e *Editor) RemoveOption(ctx context.Context, nodeID string, index int) (domain.Node, error) {
	return e.mutateNode(ctx, nodeID, func(n domain.Node) (domain.NodePatch, error) {
		if index < 0 || index >= len(n.Options) {
			return domain.NodePatch{}, &domain.ValidationError{
				Field:  "options",
				Reason: fmt.Sprintf("index %d out of range (node has %d options)", index, len(n.Options)),
			}
		}
		opts := append(append([]domain.Option{}, n.Options[:index]...), n.Options[index+1:]...)
		return domain.NodePatch{Options: &opts}, nil
	})
}

// Lint reloads the graph and reports dangling payloads and unreachable nodes.
func (e *Editor) Lint(ctx context.Context) (domain.LintReport, error) {
	var report domain.LintReport
	err := e.withLock(ctx, func(ctx context.Context) error {
		g, err := e.reload(ctx)
		if err != nil {
			return err
		}
		report = domain.Lint(g)
		return nil
	})
	return report, err
}

// mutateNode applies the patch built by fn to the staged graph and then to the store.
func (e *Editor) mutateNode(ctx context.Context, nodeID string, fn func(domain.Node) (domain.NodePatch, error)) (domain.Node, error) {
	var out domain.Node
	err := e.withLock(ctx, func(ctx context.Context) error {
		staged, err := e.stage(ctx)
		if err != nil {
			return err
		}
		current, ok := staged.GetNode(nodeID)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
		}
		patch, err := fn(current)
		if err != nil {
			return err
		}
		if err := staged.UpdateNode(nodeID, patch); err != nil {
			return err
		}
		node, _ := staged.GetNode(nodeID)
		if err := e.store.Update(ctx, node); err != nil {
			return fmt.Errorf("failed to update node %s: %w", nodeID, err)
		}
		if _, err := e.reload(ctx); err != nil {
			return err
		}
		out = node
		return nil
	})
	return out, err
}

// stage reloads from the store and returns a scratch copy to apply a change to.
// The store write only happens once the graph accepted the change. Callers hold e.mu.
func (e *Editor) stage(ctx context.Context) (*domain.FlowGraph, error) {
	g, err := e.reload(ctx)
	if err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

func replaceWith(n domain.Node) domain.NodePatch {
	opts := n.Options
	if opts == nil {
		opts = []domain.Option{}
	}
	return domain.NodePatch{
		ResponseType: &n.ResponseType,
		AnswerText:   &n.AnswerText,
		Message:      &n.Message,
		Options:      &opts,
	}
}

// reload replaces the cached graph with the store contents. Callers hold e.mu.
func (e *Editor) reload(ctx context.Context) (*domain.FlowGraph, error) {
	nodes, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	g, err := domain.NewFlowGraph(nodes...)
	if err != nil {
		return nil, fmt.Errorf("store returned an inconsistent graph: %w", err)
	}
	e.graph = g
	return g, nil
}

// withLock serializes mutations in-process and, when configured, across replicas.
func (e *Editor) withLock(ctx context.Context, fn func(context.Context) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, LockKey, e.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				e.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", LockKey,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func hasInnerSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
