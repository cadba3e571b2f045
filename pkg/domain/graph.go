package domain

import (
	"fmt"
	"sort"
	"strings"
)

// FlowGraph is the mapping nodeID -> Node, preserving insertion order for display.
// It is a pure keyed store: payload targets are not validated here.
// A FlowGraph is not safe for concurrent use; it is owned by a single editor.
type FlowGraph struct {
	nodes map[string]Node
	order []string
}

// NodePatch describes a partial update. Nil fields are left unchanged.
type NodePatch struct {
	ResponseType *ResponseType
	AnswerText   *string
	Message      *string
	Options      *[]Option
}

// NewFlowGraph creates a graph holding the given nodes in order.
// Later duplicates of an id are rejected with ErrDuplicateID.
func NewFlowGraph(nodes ...Node) (*FlowGraph, error) {
	g := &FlowGraph{nodes: make(map[string]Node, len(nodes))}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddNode inserts a node at the end of the display order.
func (g *FlowGraph) AddNode(node Node) error {
	if g.nodes == nil {
		g.nodes = make(map[string]Node)
	}
	if _, exists := g.nodes[node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, node.ID)
	}
	g.nodes[node.ID] = node.Clone()
	g.order = append(g.order, node.ID)
	return nil
}

// UpdateNode applies a patch to an existing node.
func (g *FlowGraph) UpdateNode(id string, patch NodePatch) error {
	node, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if patch.ResponseType != nil {
		node.ResponseType = *patch.ResponseType
	}
	if patch.AnswerText != nil {
		node.AnswerText = *patch.AnswerText
	}
	if patch.Message != nil {
		node.Message = *patch.Message
	}
	if patch.Options != nil {
		node.Options = append([]Option{}, (*patch.Options)...)
	}
	g.nodes[id] = node
	return nil
}

// RemoveNode deletes a node. Protected nodes are refused and the graph is left unchanged.
func (g *FlowGraph) RemoveNode(id string) error {
	if IsProtected(id) {
		return fmt.Errorf("%w: %s", ErrProtectedNode, id)
	}
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	delete(g.nodes, id)
	for i, existing := range g.order {
		if existing == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// GetNode returns a copy of the node with the given id.
func (g *FlowGraph) GetNode(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.Clone(), true
}

// Has reports whether id is present.
func (g *FlowGraph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *FlowGraph) Len() int {
	return len(g.order)
}

// ListNodes returns copies of all nodes in insertion order.
func (g *FlowGraph) ListNodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].Clone())
	}
	return out
}

// Clone returns an independent copy of the graph.
func (g *FlowGraph) Clone() *FlowGraph {
	out := &FlowGraph{
		nodes: make(map[string]Node, len(g.nodes)),
		order: append([]string(nil), g.order...),
	}
	for id, n := range g.nodes {
		out.nodes[id] = n.Clone()
	}
	return out
}

// EnsureCoreNodes adds welcome_node and show_form when missing and returns the nodes it created.
// It is idempotent: a second call on the same graph returns nothing.
func EnsureCoreNodes(g *FlowGraph) []Node {
	var created []Node
	for _, core := range []Node{NewWelcomeNode(), NewShowFormNode()} {
		if g.Has(core.ID) {
			continue
		}
		// AddNode cannot fail: presence was just checked.
		_ = g.AddNode(core)
		created = append(created, core)
	}
	return created
}

// UnresolvedPayload is an option whose payload does not name a node in the graph.
// At runtime such a payload is either matched as free text or fails on traversal.
type UnresolvedPayload struct {
	NodeID      string
	OptionIndex int
	Option      Option
}

func (u UnresolvedPayload) String() string {
	return fmt.Sprintf("%s[%d] %q -> %q", u.NodeID, u.OptionIndex, u.Option.Text, u.Option.Payload)
}

// LintReport is the authoring-time integrity report of a graph.
type LintReport struct {
	Unresolved  []UnresolvedPayload
	Unreachable []string
}

// Clean reports whether the graph has no findings.
func (r LintReport) Clean() bool {
	return len(r.Unresolved) == 0 && len(r.Unreachable) == 0
}

func (r LintReport) String() string {
	if r.Clean() {
		return "no findings"
	}
	var b strings.Builder
	for _, u := range r.Unresolved {
		fmt.Fprintf(&b, "unresolved payload: %s\n", u)
	}
	for _, id := range r.Unreachable {
		fmt.Fprintf(&b, "unreachable node: %s\n", id)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// FindUnresolved returns options whose payload is neither a node id nor a protected id.
func FindUnresolved(g *FlowGraph) []UnresolvedPayload {
	return Lint(g).Unresolved
}

// Lint reports dangling option payloads and nodes that cannot be reached from welcome_node.
// Findings are warnings: dangling references are tolerated and degrade at traversal time.
func Lint(g *FlowGraph) LintReport {
	var report LintReport

	for _, id := range g.order {
		for i, opt := range g.nodes[id].Options {
			if g.Has(opt.Payload) || IsProtected(opt.Payload) {
				continue
			}
			report.Unresolved = append(report.Unresolved, UnresolvedPayload{
				NodeID:      id,
				OptionIndex: i,
				Option:      opt,
			})
		}
	}

	visited := make(map[string]bool)
	queue := []string{WelcomeNodeID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		node, ok := g.nodes[current]
		if !ok {
			continue
		}
		for _, opt := range node.Options {
			if !visited[opt.Payload] && g.Has(opt.Payload) {
				queue = append(queue, opt.Payload)
			}
		}
	}

	for _, id := range g.order {
		if !visited[id] && !IsProtected(id) {
			report.Unreachable = append(report.Unreachable, id)
		}
	}
	sort.Strings(report.Unreachable)

	return report
}
