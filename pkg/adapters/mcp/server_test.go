package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/chatter/pkg/adapters/memory"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/editor"
	"github.com/aretw0/chatter/pkg/resolver"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	store, err := memory.NewNodeStore()
	require.NoError(t, err)
	ed := editor.New(store)
	_, err = ed.Load(context.Background())
	require.NoError(t, err)
	return NewServer(ed, resolver.New(store))
}

func TestListNodes_IncludesCoreNodes(t *testing.T) {
	s := newServer(t)
	list, err := s.handleListNodes(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	require.Len(t, list.Nodes, 2)
	assert.Equal(t, domain.WelcomeNodeID, list.Nodes[0].NodeID)
	assert.Equal(t, domain.ShowFormNodeID, list.Nodes[1].NodeID)
}

func TestSaveNode(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	rec, err := s.handleSaveNode(ctx, mcp.CallToolRequest{}, map[string]any{
		"node_id":       "pricing",
		"response_type": "rich",
		"message":       "Our plans",
		"options":       `[{"text":"Back","payload":"welcome_node"}]`,
		"create":        true,
	})
	require.NoError(t, err)
	assert.Equal(t, "pricing", rec.NodeID)
	assert.Equal(t, domain.RuleTypeOptions, rec.RuleData.Type)

	_, err = s.handleSaveNode(ctx, mcp.CallToolRequest{}, map[string]any{
		"node_id":       "pricing",
		"response_type": "text",
		"create":        true,
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "text nodes need an answer")

	_, err = s.handleSaveNode(ctx, mcp.CallToolRequest{}, map[string]any{
		"node_id":       "pricing",
		"response_type": "rich",
		"options":       `not json`,
	})
	assert.Error(t, err)

	rec, err = s.handleSaveNode(ctx, mcp.CallToolRequest{}, map[string]any{
		"node_id":       "pricing",
		"response_type": "text",
		"answer":        "From $10",
	})
	require.NoError(t, err)
	assert.Equal(t, "From $10", rec.RuleData.Answer)
}

func TestDeleteNode(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"node_id": domain.WelcomeNodeID}
	res, err := s.handleDeleteNode(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.IsError, "protected nodes cannot be deleted")

	_, err = s.handleSaveNode(ctx, mcp.CallToolRequest{}, map[string]any{
		"node_id": "faq", "response_type": "text", "answer": "x", "create": true,
	})
	require.NoError(t, err)

	req.Params.Arguments = map[string]any{"node_id": "faq"}
	res, err = s.handleDeleteNode(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

func TestLintAndInteract(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	_, err := s.handleSaveNode(ctx, mcp.CallToolRequest{}, map[string]any{
		"node_id":       "orphan",
		"response_type": "rich",
		"message":       "Lost",
		"options":       `[{"text":"Nowhere","payload":"ghost"}]`,
		"create":        true,
	})
	require.NoError(t, err)

	lint, err := s.handleLint(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.False(t, lint.Clean)
	assert.Equal(t, []string{"orphan"}, lint.Unreachable)
	require.Len(t, lint.Unresolved, 1)
	assert.Contains(t, lint.Unresolved[0], `"ghost"`)

	out, err := s.handleInteract(ctx, mcp.CallToolRequest{}, map[string]any{"payload": "orphan"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRich, out.Outcome)
	assert.Equal(t, "Lost", out.Message)

	out, err = s.handleInteract(ctx, mcp.CallToolRequest{}, map[string]any{"payload": "ghost"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailure, out.Outcome)
	assert.Equal(t, resolver.InvalidOptionMsg, out.Error)

	out, err = s.handleInteract(ctx, mcp.CallToolRequest{}, map[string]any{"payload": "show_form"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeForm, out.Outcome)

	_, err = s.handleInteract(ctx, mcp.CallToolRequest{}, map[string]any{"type": "voice", "payload": "x"})
	assert.Error(t, err)
}
