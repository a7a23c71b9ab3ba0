package tfidf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrank/internal/embedding"
)

var _ embedding.BatchEmbedder = (*Embedder)(nil)

func TestEmbed_RequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed(context.Background(), "anything")
	assert.Error(t, err)
}

func TestPrepare_EmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	assert.Error(t, e.Prepare(nil))
	assert.Error(t, e.Prepare([]string{"the and of"}))
}

func TestEmbed_RanksRelevantTextHigher(t *testing.T) {
	corpus := []string{
		"Beaches of Nice and the coastal restaurants",
		"Tax law amendments for corporate filings",
		"Travel planner for college friends",
	}
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	assert.Greater(t, e.Dimension(), 0)

	ctx := context.Background()
	q, err := e.Embed(ctx, "Travel planner. Task: plan a trip to the beaches")
	require.NoError(t, err)

	beaches, err := e.Embed(ctx, corpus[0])
	require.NoError(t, err)
	tax, err := e.Embed(ctx, corpus[1])
	require.NoError(t, err)

	simBeaches, ok := embedding.Cosine(q, beaches)
	require.True(t, ok)
	simTax, _ := embedding.Cosine(q, tax)
	assert.Zero(t, simTax)
	assert.Greater(t, simBeaches, simTax)
}

func TestEmbed_UnknownTermsYieldZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"alpha beta"}))

	vec, err := e.Embed(context.Background(), "gamma delta")
	require.NoError(t, err)
	assert.Len(t, vec, e.Dimension())
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbed_Deterministic(t *testing.T) {
	corpus := []string{"one two three", "three four five", "five six"}
	a, b := NewEmbedder(), NewEmbedder()
	require.NoError(t, a.Prepare(corpus))
	require.NoError(t, b.Prepare(corpus))

	ctx := context.Background()
	va, err := a.Embed(ctx, "two three five")
	require.NoError(t, err)
	vb, err := b.Embed(ctx, "two three five")
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	corpus := []string{"red apples", "green pears", "blue berries"}
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))

	ctx := context.Background()
	batch, err := e.EmbedBatch(ctx, corpus)
	require.NoError(t, err)
	require.Len(t, batch, len(corpus))
	for i, text := range corpus {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestEmbed_HonoursCancelledContext(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"alpha"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Embed(ctx, "alpha")
	assert.ErrorIs(t, err, context.Canceled)
}
