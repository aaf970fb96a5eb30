package embed

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder records calls so cache and batcher behavior can be
// asserted.
type countingEmbedder struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	batchSizes []int
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.embedCalls++
	c.mu.Unlock()
	return vecFor(text), nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.batchCalls++
	c.batchSizes = append(c.batchSizes, len(texts))
	c.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = vecFor(text)
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int                { return 4 }
func (c *countingEmbedder) ModelName() string              { return "counting" }
func (c *countingEmbedder) Available(context.Context) bool { return true }
func (c *countingEmbedder) Close() error                   { return nil }

// vecFor derives a tiny deterministic vector from the text length.
func vecFor(text string) []float32 {
	return []float32{float32(len(text)), 1, 0, 0}
}

func TestStaticEmbedder_Deterministic(t *testing.T) {
	e := NewStaticEmbedder(128)
	defer e.Close()

	a, err := e.Embed(context.Background(), "the experimental method")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "the experimental method")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
}

func TestStaticEmbedder_VectorsAreUnitNormalized(t *testing.T) {
	e := NewStaticEmbedder(128)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "some paragraph about search quality")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestStaticEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	e := NewStaticEmbedder(16)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "   \n\t ")
	require.NoError(t, err)

	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStaticEmbedder_SharedVocabularyScoresHigher(t *testing.T) {
	// Given: a query and two candidate paragraphs
	e := NewStaticEmbedder(256)
	defer e.Close()
	ctx := context.Background()

	query, err := e.Embed(ctx, "experimental method procedure")
	require.NoError(t, err)
	related, err := e.Embed(ctx, "the method section describes the experimental procedure")
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "cooking pasta requires salted boiling water")
	require.NoError(t, err)

	dot := func(a, b []float32) float64 {
		var sum float64
		for i := range a {
			sum += float64(a[i]) * float64(b[i])
		}
		return sum
	}

	// Then: vocabulary overlap dominates the similarity
	assert.Greater(t, dot(query, related), dot(query, unrelated))
}

func TestStaticEmbedder_RejectsUseAfterClose(t *testing.T) {
	e := NewStaticEmbedder(16)
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}

func TestCachedEmbedder_RepeatedQueryHitsCache(t *testing.T) {
	// Given: a cached embedder
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 10)

	// When: the same text is embedded three times
	for i := 0; i < 3; i++ {
		_, err := c.Embed(context.Background(), "repeated query")
		require.NoError(t, err)
	}

	// Then: the inner embedder ran once
	assert.Equal(t, 1, inner.embedCalls)
}

func TestCachedEmbedder_BatchReusesPartialHits(t *testing.T) {
	// Given: one text already cached
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 10)

	_, err := c.Embed(context.Background(), "alpha")
	require.NoError(t, err)

	// When: a batch includes the cached text and a new one
	results, err := c.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)

	// Then: only the new text reached the inner embedder
	require.Len(t, results, 2)
	require.Len(t, inner.batchSizes, 1)
	assert.Equal(t, 1, inner.batchSizes[0])

	// And: a fully cached batch makes no inner call
	_, err = c.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.batchCalls)
}

func TestAdaptiveBatcher_SplitsUnderMemoryPressure(t *testing.T) {
	// Given: a batcher that sees a constrained machine
	inner := &countingEmbedder{}
	b := NewAdaptiveBatcher(inner, BatcherConfig{MinBatchSize: 2, BatchSize: 4, MaxBatchSize: 8})
	b.memFunc = func() uint64 { return 1 * 1024 * 1024 * 1024 }

	// When: ten texts are embedded
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = "text"
	}
	results, err := b.EmbedBatch(context.Background(), texts)

	// Then: the work ran in minimum-size sub-batches
	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.Equal(t, []int{2, 2, 2, 2, 2}, inner.batchSizes)
}

func TestAdaptiveBatcher_UsesMaxBatchWhenMemoryIsPlentiful(t *testing.T) {
	inner := &countingEmbedder{}
	b := NewAdaptiveBatcher(inner, BatcherConfig{MinBatchSize: 2, BatchSize: 4, MaxBatchSize: 8})
	b.memFunc = func() uint64 { return 16 * 1024 * 1024 * 1024 }

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = "text"
	}
	results, err := b.EmbedBatch(context.Background(), texts)

	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.Equal(t, []int{8, 2}, inner.batchSizes)
}

func TestBatchSizeFor_Tiers(t *testing.T) {
	const gb = 1024 * 1024 * 1024

	assert.Equal(t, 32, batchSizeFor(100, 4, 16, 32, 8*gb))
	assert.Equal(t, 16, batchSizeFor(100, 4, 16, 32, 3*gb))
	assert.Equal(t, 4, batchSizeFor(100, 4, 16, 32, 1*gb))

	// Never exceeds the number of texts
	assert.Equal(t, 5, batchSizeFor(5, 4, 16, 32, 8*gb))
}

func TestNormalizeVector_ZeroVectorStaysZero(t *testing.T) {
	vec := normalizeVector([]float32{0, 0, 0})
	for _, v := range vec {
		assert.Zero(t, v)
	}
}
