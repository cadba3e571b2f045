package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/chatter/pkg/adapters/memory"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFlow() *Builder {
	b := New()

	b.Welcome("Hi! What brings you here?").
		Option("Pricing", "pricing").
		Option("Talk to a human", domain.ShowFormNodeID)

	b.Add("pricing").
		Text("Plans start at $10 per month.")

	b.Add("plans").
		Rich("Which plan?").
		Option("Starter", "pricing").
		Back()

	return b
}

func TestBuilder_Nodes(t *testing.T) {
	nodes := sampleFlow().Nodes()
	require.Len(t, nodes, 3)

	assert.Equal(t, domain.WelcomeNodeID, nodes[0].ID)
	assert.Equal(t, domain.ResponseRich, nodes[0].ResponseType)
	assert.Equal(t, []domain.Option{
		{Text: "Pricing", Payload: "pricing"},
		{Text: "Talk to a human", Payload: domain.ShowFormNodeID},
	}, nodes[0].Options)

	assert.Equal(t, domain.Node{ID: "pricing", ResponseType: domain.ResponseText, AnswerText: "Plans start at $10 per month."}, nodes[1])
	assert.Equal(t, domain.Option{Text: "Back", Payload: domain.WelcomeNodeID}, nodes[2].Options[1])
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New()
	b.Add("faq").Text("first")
	b.Add("faq").Text("second")

	nodes := b.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "second", nodes[0].AnswerText)
}

func TestNodeBuilder_OptionTurnsTextRich(t *testing.T) {
	n := New().Add("x").Text("Pick one").Option("A", "a").Build()
	assert.Equal(t, domain.ResponseRich, n.ResponseType)
	assert.Equal(t, "Pick one", n.Message)
	assert.Empty(t, n.AnswerText)
}

func TestBuilder_Build(t *testing.T) {
	store, err := sampleFlow().Build()
	require.NoError(t, err)

	n, err := store.Get(context.Background(), "pricing")
	require.NoError(t, err)
	assert.Equal(t, "Plans start at $10 per month.", n.AnswerText)
}

func TestBuilder_Seed(t *testing.T) {
	ctx := context.Background()
	store, err := memory.NewNodeStore()
	require.NoError(t, err)
	ed := editor.New(store)
	_, err = ed.Load(ctx)
	require.NoError(t, err)

	written, err := sampleFlow().Seed(ctx, ed)
	require.NoError(t, err)
	assert.Equal(t, 3, written, "pristine welcome is replaced, pricing and plans are created")

	welcome, _ := ed.Graph().GetNode(domain.WelcomeNodeID)
	assert.Equal(t, "Hi! What brings you here?", welcome.Message)

	report, err := ed.Lint(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Unresolved)

	// Authored content survives a second seed.
	_, err = ed.SaveNode(ctx, editor.Draft{ID: "pricing", ResponseType: domain.ResponseText, AnswerText: "Custom"})
	require.NoError(t, err)
	written, err = sampleFlow().Seed(ctx, ed)
	require.NoError(t, err)
	assert.Zero(t, written)
	pricing, _ := ed.Graph().GetNode("pricing")
	assert.Equal(t, "Custom", pricing.AnswerText)
}

func TestBuilder_SeedRejectsInvalidNode(t *testing.T) {
	ctx := context.Background()
	store, err := memory.NewNodeStore()
	require.NoError(t, err)
	ed := editor.New(store)
	_, err = ed.Load(ctx)
	require.NoError(t, err)

	b := New()
	b.Add("empty").Text("")
	_, err = b.Seed(ctx, ed)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
