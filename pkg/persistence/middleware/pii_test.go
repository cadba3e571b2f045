package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/chatter/pkg/adapters/memory"
	"github.com/aretw0/chatter/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_MasksMatchingFields(t *testing.T) {
	underlying := memory.NewSubmissionStore()
	mw, err := middleware.NewPIIMiddleware([]string{"^phone$", "mail"})
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	sub := lead()
	sub.Phone = "+1 555 0100"
	require.NoError(t, store.Save(ctx, sub))
	assert.Equal(t, "ada@example.com", sub.Email, "caller's copy is untouched")

	stored, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, middleware.Mask, stored[0].Email)
	assert.Equal(t, middleware.Mask, stored[0].Phone)
	assert.Equal(t, "Ada Lovelace", stored[0].Name)
	assert.Equal(t, "Call me back", stored[0].Message)
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.ErrorContains(t, err, "invalid redaction pattern")
}

func TestChain_RedactThenEncrypt(t *testing.T) {
	underlying := memory.NewSubmissionStore()
	pii, err := middleware.NewPIIMiddleware([]string{"phone"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()

	sub := lead()
	sub.Phone = "+1 555 0100"
	require.NoError(t, store.Save(ctx, sub))

	raw, err := underlying.List(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, middleware.Mask, raw[0].Phone, "mask is sealed too")

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, got[0].Phone)
	assert.Equal(t, "ada@example.com", got[0].Email)
}
