package dsl

import "github.com/aretw0/chatter/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Text makes the node a text node showing answer. Options are dropped.
func (n *NodeBuilder) Text(answer string) *NodeBuilder {
	n.node.ResponseType = domain.ResponseText
	n.node.AnswerText = answer
	n.node.Message = ""
	n.node.Options = nil
	return n
}

// Rich makes the node a rich node showing message followed by its options.
func (n *NodeBuilder) Rich(message string) *NodeBuilder {
	n.node.ResponseType = domain.ResponseRich
	n.node.Message = message
	n.node.AnswerText = ""
	return n
}

// Option appends a quick reply leading to payload. Text nodes become rich nodes.
func (n *NodeBuilder) Option(text, payload string) *NodeBuilder {
	if n.node.ResponseType != domain.ResponseRich {
		n.Rich(n.node.AnswerText)
	}
	n.node.Options = append(n.node.Options, domain.Option{Text: text, Payload: payload})
	return n
}

// Back appends a "Back" quick reply to welcome_node.
func (n *NodeBuilder) Back() *NodeBuilder {
	return n.Option("Back", domain.WelcomeNodeID)
}

// Build returns a copy of the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}
