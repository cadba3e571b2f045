package resolver_test

import (
	"context"
	"testing"

	"github.com/aretw0/chatter/pkg/adapters/memory"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, nodes ...domain.Node) *resolver.StoreResolver {
	t.Helper()
	store, err := memory.NewNodeStore(nodes...)
	require.NoError(t, err)
	m := resolver.NewMatcher([]resolver.FAQ{
		{Question: "What are your opening hours?", Answer: "We are open 9 to 5."},
		{Question: "How much does shipping cost?", Answer: "Shipping is free over $50."},
	}, 0)
	return resolver.New(store, resolver.WithMatcher(m))
}

func TestResolve_Rule(t *testing.T) {
	ctx := context.Background()
	welcome := domain.Node{
		ID:           domain.WelcomeNodeID,
		ResponseType: domain.ResponseRich,
		Message:      "Hi",
		Options:      []domain.Option{{Text: "Hours", Payload: "hours"}},
	}
	hours := domain.Node{ID: "hours", ResponseType: domain.ResponseText, AnswerText: "9 to 5"}
	r := newResolver(t, welcome, hours)

	res, err := r.Resolve(ctx, domain.ResolveRequest{Kind: domain.KindRule, Payload: domain.WelcomeNodeID})
	require.NoError(t, err)
	assert.Equal(t, domain.RichResponse{Message: "Hi", Options: welcome.Options}, res)

	res, err = r.Resolve(ctx, domain.ResolveRequest{Kind: domain.KindRule, Payload: "hours"})
	require.NoError(t, err)
	assert.Equal(t, domain.TextResponse{Answer: "9 to 5"}, res)
}

func TestResolve_UnknownNode(t *testing.T) {
	r := newResolver(t)

	_, err := r.Resolve(context.Background(), domain.ResolveRequest{Kind: domain.KindRule, Payload: "ghost"})
	require.ErrorIs(t, err, domain.ErrResolution)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	var rerr *domain.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 404, rerr.StatusCode)
	assert.Equal(t, resolver.InvalidOptionMsg, rerr.Message)
}

func TestResolve_ShowForm(t *testing.T) {
	ctx := context.Background()
	req := domain.ResolveRequest{Kind: domain.KindRule, Payload: domain.ShowFormNodeID}

	res, err := newResolver(t).Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.FormEscalation{Message: resolver.DefaultFormMessage}, res)

	res, err = newResolver(t, domain.NewShowFormNode()).Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.FormEscalation{Message: resolver.DefaultFormMessage}, res)

	custom := domain.NewShowFormNode()
	custom.Message = "Leave your details"
	res, err = newResolver(t, custom).Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.FormEscalation{Message: "Leave your details"}, res)
}

func TestResolve_Text(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t)

	res, err := r.Resolve(ctx, domain.ResolveRequest{Kind: domain.KindText, Payload: "opening hours?"})
	require.NoError(t, err)
	assert.Equal(t, domain.TextResponse{Answer: "We are open 9 to 5."}, res)

	res, err = r.Resolve(ctx, domain.ResolveRequest{Kind: domain.KindText, Payload: "do you sell bicycles"})
	require.NoError(t, err)
	assert.Equal(t, domain.TextResponse{Answer: resolver.NoAnswerMessage}, res)
}

func TestResolve_InvalidInput(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t)

	_, err := r.Resolve(ctx, domain.ResolveRequest{Kind: domain.KindText, Payload: "  "})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, resolver.NoInputMessage)

	_, err = r.Resolve(ctx, domain.ResolveRequest{Kind: "video", Payload: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
