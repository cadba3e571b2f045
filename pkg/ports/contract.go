package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunNodeStoreContract runs a suite of tests to verify that a NodeStore implementation
// adheres to the defined interface contract. The store must start empty.
func RunNodeStoreContract(t *testing.T, store NodeStore) {
	ctx := context.Background()

	welcome := domain.Node{
		ID:           domain.WelcomeNodeID,
		ResponseType: domain.ResponseRich,
		Message:      "Hello",
		Options:      []domain.Option{{Text: "Pricing", Payload: "pricing"}},
	}
	pricing := domain.Node{
		ID:           "pricing",
		ResponseType: domain.ResponseText,
		AnswerText:   "Plans start at $10.",
	}
	faq := domain.Node{
		ID:           "faq",
		ResponseType: domain.ResponseRich,
		Message:      "FAQ",
		Options:      []domain.Option{{Text: "Back", Payload: domain.WelcomeNodeID}},
	}

	t.Run("Create and Get", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, welcome))
		require.NoError(t, store.Create(ctx, pricing))

		got, err := store.Get(ctx, domain.WelcomeNodeID)
		require.NoError(t, err)
		assert.Equal(t, welcome, got)

		got, err = store.Get(ctx, "pricing")
		require.NoError(t, err)
		assert.Equal(t, pricing.AnswerText, got.AnswerText)
		assert.Equal(t, domain.ResponseText, got.ResponseType)
	})

	t.Run("Create Duplicate", func(t *testing.T) {
		err := store.Create(ctx, domain.Node{ID: "pricing", ResponseType: domain.ResponseText, AnswerText: "other"})
		assert.ErrorIs(t, err, domain.ErrDuplicateID)

		got, err := store.Get(ctx, "pricing")
		require.NoError(t, err)
		assert.Equal(t, pricing.AnswerText, got.AnswerText, "failed create must not overwrite")
	})

	t.Run("List Preserves Insertion Order", func(t *testing.T) {
		// Keep timestamps distinct for stores that order by time.
		time.Sleep(2 * time.Millisecond)
		require.NoError(t, store.Create(ctx, faq))

		nodes, err := store.List(ctx)
		require.NoError(t, err)
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID
		}
		assert.Equal(t, []string{domain.WelcomeNodeID, "pricing", "faq"}, ids)
	})

	t.Run("Update", func(t *testing.T) {
		updated := faq.Clone()
		updated.Message = "Frequently asked"
		updated.Options = append(updated.Options, domain.Option{Text: "Pricing", Payload: "pricing"})
		require.NoError(t, store.Update(ctx, updated))

		got, err := store.Get(ctx, "faq")
		require.NoError(t, err)
		assert.Equal(t, updated, got)

		nodes, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, "faq", nodes[len(nodes)-1].ID, "update must not reorder")
	})

	t.Run("Update Non-Existent", func(t *testing.T) {
		err := store.Update(ctx, domain.Node{ID: "ghost", ResponseType: domain.ResponseText})
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "pricing"))

		_, err := store.Get(ctx, "pricing")
		assert.ErrorIs(t, err, domain.ErrNodeNotFound, "Get after Delete should return ErrNodeNotFound")

		assert.ErrorIs(t, store.Delete(ctx, "pricing"), domain.ErrNodeNotFound)

		nodes, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, nodes, 2)
	})
}

// RunSubmissionStoreContract verifies a SubmissionStore implementation. The store must start empty.
func RunSubmissionStoreContract(t *testing.T, store SubmissionStore) {
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Empty", func(t *testing.T) {
		subs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("Save and List", func(t *testing.T) {
		first := domain.NewSubmission("tenant-a", domain.FormFields{Name: "Ada", Email: "ada@example.com", Message: "hi"}, base)
		second := domain.NewSubmission("tenant-a", domain.FormFields{Name: "Bob", Email: "bob@example.com", Phone: "123", Message: "yo"}, base.Add(time.Minute))

		require.NoError(t, store.Save(ctx, first))
		require.NoError(t, store.Save(ctx, second))

		subs, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, subs, 2)

		assert.Equal(t, first.ID, subs[0].ID)
		assert.Equal(t, second.ID, subs[1].ID)
		assert.Equal(t, "123", subs[1].Phone)
		assert.Equal(t, "tenant-a", subs[1].ClientID)
		assert.True(t, second.SubmittedAt.Equal(subs[1].SubmittedAt))
	})
}
