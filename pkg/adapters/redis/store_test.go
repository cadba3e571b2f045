package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/chatter/pkg/adapters/redis"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisNodeStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunNodeStoreContract(t, redis.NewNodeStore(client))
}

func TestRedisSubmissionStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSubmissionStoreContract(t, redis.NewSubmissionStore(client))
}

func TestRedisNodeStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := redis.NewNodeStore(client, redis.WithPrefix("custom:app:"), redis.WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, domain.Node{ID: "faq", ResponseType: domain.ResponseText, AnswerText: "42"}))

	assert.True(t, mr.Exists("custom:app:node:faq"), "node key should carry the custom prefix")
	assert.True(t, mr.Exists("custom:app:nodes"), "order index should carry the custom prefix")
	assert.False(t, mr.Exists("chatter:node:faq"))

	raw, err := mr.Get("custom:app:node:faq")
	require.NoError(t, err)
	assert.JSONEq(t, `{"node_id":"faq","rule_data":{"type":"text","answer":"42"},"updated_at":"2024-05-01T12:00:00Z"}`, raw)
}

func TestRedisNodeStore_OrderSurvivesUpdate(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewNodeStore(client)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Create(ctx, domain.Node{ID: id, ResponseType: domain.ResponseText, AnswerText: id}))
	}
	require.NoError(t, store.Update(ctx, domain.Node{ID: "a", ResponseType: domain.ResponseText, AnswerText: "changed"}))

	nodes, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{nodes[0].ID, nodes[1].ID, nodes[2].ID})
	assert.Equal(t, "changed", nodes[0].AnswerText)
}

func TestRedisNodeStore_SkipsDanglingIndexEntries(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewNodeStore(client)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, domain.Node{ID: "keep", ResponseType: domain.ResponseText, AnswerText: "x"}))
	require.NoError(t, store.Create(ctx, domain.Node{ID: "gone", ResponseType: domain.ResponseText, AnswerText: "y"}))
	mr.Del("chatter:node:gone")

	nodes, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "keep", nodes[0].ID)
}

func TestRedisNodeStore_CorruptRecord(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewNodeStore(client)

	require.NoError(t, mr.Set("chatter:node:bad", "{not json"))
	_, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNodeNotFound)
}
