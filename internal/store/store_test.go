package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parasearch/parasearch/internal/errors"
)

const testDims = 4

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(Config{
		Path:                filepath.Join(t.TempDir(), "test.db"),
		Dimensions:          testDims,
		Model:               "test-model",
		SimilarityThreshold: 0.5,
		MaxResults:          10,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// unitVec builds a unit vector pointing along one axis, optionally tilted.
func unitVec(axis int) []float32 {
	v := make([]float32, testDims)
	v[axis] = 1
	return v
}

func testChunk(content string, index int, vec []float32) Chunk {
	sum := sha256.Sum256([]byte(content))
	return Chunk{
		Index:       index,
		Content:     content,
		ContentHash: hex.EncodeToString(sum[:]),
		WordCount:   len(content) / 5,
		CharCount:   len(content),
		Vector:      vec,
	}
}

func TestStore_OpensWithFallbackBackend(t *testing.T) {
	// Given/When: a store opened with the pure Go driver
	s := newTestStore(t)

	// Then: the brute-force backend is selected
	assert.Equal(t, BackendFallback, s.Backend())
}

func TestStore_SecondOpenFailsWhileLocked(t *testing.T) {
	// Given: an open store
	path := filepath.Join(t.TempDir(), "test.db")
	first, err := New(Config{Path: path, Dimensions: testDims})
	require.NoError(t, err)
	defer first.Close()

	// When: a second store opens the same path
	_, err = New(Config{Path: path, Dimensions: testDims})

	// Then: the lock rejects it
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStorageLocked, errors.GetCode(err))
}

func TestStore_ReopenAfterClose(t *testing.T) {
	// Given: a store with one document, closed again
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := New(Config{Path: path, Dimensions: testDims})
	require.NoError(t, err)
	_, err = s.ReplaceDocument(ctx, "/notes/a.md", "hash-a", []Chunk{
		testChunk("alpha paragraph", 0, unitVec(0)),
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// When: the store reopens
	s2, err := New(Config{Path: path, Dimensions: testDims})
	require.NoError(t, err)
	defer s2.Close()

	// Then: the document is still there
	chunks, err := s2.DocumentChunks(ctx, "/notes/a.md")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "alpha paragraph", chunks[0].Content)
}

func TestReplaceDocument_RoundTrip(t *testing.T) {
	// Given: a store
	s := newTestStore(t)
	ctx := context.Background()

	chunks := []Chunk{
		testChunk("first paragraph about methods", 0, unitVec(0)),
		testChunk("second paragraph about results", 1, unitVec(1)),
	}
	chunks[0].Metadata = map[string]string{"title": "Paper"}

	// When: a document is stored and read back
	stored, err := s.ReplaceDocument(ctx, "/notes/paper.md", "hash-1", chunks)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	got, err := s.DocumentChunks(ctx, "/notes/paper.md")
	require.NoError(t, err)

	// Then: order and content survive
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, "first paragraph about methods", got[0].Content)
	assert.Equal(t, map[string]string{"title": "Paper"}, got[0].Metadata)
	assert.Equal(t, 1, got[1].Index)
}

func TestReplaceDocument_ReplacesOldChunks(t *testing.T) {
	// Given: a document with three chunks
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.ReplaceDocument(ctx, "/notes/a.md", "v1", []Chunk{
		testChunk("one", 0, unitVec(0)),
		testChunk("two", 1, unitVec(1)),
		testChunk("three", 2, unitVec(2)),
	})
	require.NoError(t, err)

	// When: it is replaced with a single different chunk
	_, err = s.ReplaceDocument(ctx, "/notes/a.md", "v2", []Chunk{
		testChunk("only survivor", 0, unitVec(3)),
	})
	require.NoError(t, err)

	// Then: nothing of the old version remains
	got, err := s.DocumentChunks(ctx, "/notes/a.md")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "only survivor", got[0].Content)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalChunks)
}

func TestReplaceDocument_IdenticalParagraphAcrossDocumentsCollapses(t *testing.T) {
	// Given: two documents sharing one identical paragraph
	s := newTestStore(t)
	ctx := context.Background()

	shared := "this exact paragraph appears in both documents verbatim"
	_, err := s.ReplaceDocument(ctx, "/notes/a.md", "ha", []Chunk{
		testChunk(shared, 0, unitVec(0)),
	})
	require.NoError(t, err)

	// When: the second document stores the same content
	_, err = s.ReplaceDocument(ctx, "/notes/b.md", "hb", []Chunk{
		testChunk(shared, 0, unitVec(0)),
	})
	require.NoError(t, err)

	// Then: the store holds a single chunk, owned by the later document
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalChunks)

	got, err := s.DocumentChunks(ctx, "/notes/b.md")
	require.NoError(t, err)
	require.Len(t, got, 1)

	gotA, err := s.DocumentChunks(ctx, "/notes/a.md")
	require.NoError(t, err)
	assert.Empty(t, gotA)
}

func TestReplaceDocument_DuplicateWithinDocumentCountsOnce(t *testing.T) {
	// Given: one document repeating the same paragraph twice
	s := newTestStore(t)
	ctx := context.Background()

	repeated := "a paragraph that the author pasted twice by accident"
	n, err := s.ReplaceDocument(ctx, "/notes/a.md", "h", []Chunk{
		testChunk(repeated, 0, unitVec(0)),
		testChunk(repeated, 1, unitVec(0)),
	})
	require.NoError(t, err)

	// Then: the duplicates collapse to one row and the count says so
	assert.Equal(t, 1, n)

	got, err := s.DocumentChunks(ctx, "/notes/a.md")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReplaceDocument_DimensionMismatch(t *testing.T) {
	// Given: a store expecting 4-dimensional vectors
	s := newTestStore(t)

	// When: a chunk carries a 3-dimensional vector
	bad := testChunk("bad vector", 0, []float32{1, 0, 0})
	_, err := s.ReplaceDocument(context.Background(), "/notes/a.md", "h", []Chunk{bad})

	// Then: the write is rejected
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDimensionMismatch, errors.GetCode(err))
}

func TestDeleteDocument_RemovesChunksAndFingerprint(t *testing.T) {
	// Given: an indexed document
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.ReplaceDocument(ctx, "/notes/a.md", "h", []Chunk{
		testChunk("one", 0, unitVec(0)),
		testChunk("two", 1, unitVec(1)),
	})
	require.NoError(t, err)

	// When: the document is deleted
	count, err := s.DeleteDocument(ctx, "/notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Then: chunks and fingerprint are gone
	got, err := s.DocumentChunks(ctx, "/notes/a.md")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, ok, err := s.GetFileHash(ctx, "/notes/a.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteDocument_UnknownPathIsNotAnError(t *testing.T) {
	// Given: an empty store
	s := newTestStore(t)

	// When: an unknown document is deleted
	count, err := s.DeleteDocument(context.Background(), "/never/indexed.md")

	// Then: the delete succeeds with zero chunks
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFileHash_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetFileHash(ctx, "/notes/a.md")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetFileHash(ctx, "/notes/a.md", "abc123"))

	hash, ok, err := s.GetFileHash(ctx, "/notes/a.md")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", hash)

	// Overwrite
	require.NoError(t, s.SetFileHash(ctx, "/notes/a.md", "def456"))
	hash, _, err = s.GetFileHash(ctx, "/notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "def456", hash)
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	// Given: three chunks pointing along different axes
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.ReplaceDocument(ctx, "/notes/a.md", "h", []Chunk{
		testChunk("about methods", 0, []float32{1, 0, 0, 0}),
		testChunk("about results", 1, []float32{0, 1, 0, 0}),
		testChunk("about related work", 2, []float32{0.8, 0.6, 0, 0}),
	})
	require.NoError(t, err)

	// When: searching near the first axis
	results, err := s.Search(ctx, []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)

	// Then: the methods chunk ranks first, results chunk is filtered
	// out by the 0.5 threshold
	require.Len(t, results, 2)
	assert.Equal(t, "about methods", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.Equal(t, "about related work", results[1].Content)
	assert.InDelta(t, 0.8, results[1].Similarity, 1e-6)
}

func TestSearch_DeterministicTieBreakByID(t *testing.T) {
	// Given: two chunks with identical vectors
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.ReplaceDocument(ctx, "/notes/a.md", "h", []Chunk{
		testChunk("twin alpha", 0, unitVec(0)),
		testChunk("twin beta", 1, unitVec(0)),
	})
	require.NoError(t, err)

	// When: searching repeatedly
	var first []SearchResult
	for i := 0; i < 5; i++ {
		results, err := s.Search(ctx, unitVec(0), 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		if first == nil {
			first = results
			// Equal scores order by ascending id
			assert.Less(t, results[0].ID, results[1].ID)
			continue
		}

		// Then: the order never changes
		assert.Equal(t, first[0].ID, results[0].ID)
		assert.Equal(t, first[1].ID, results[1].ID)
	}
}

func TestSearch_ThresholdFiltersWeakMatches(t *testing.T) {
	// Given: one chunk orthogonal to the query
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.ReplaceDocument(ctx, "/notes/a.md", "h", []Chunk{
		testChunk("unrelated content", 0, unitVec(1)),
	})
	require.NoError(t, err)

	// When: searching along a different axis
	results, err := s.Search(ctx, unitVec(0), 10)

	// Then: nothing clears the threshold
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_LimitClampedToMaxResults(t *testing.T) {
	// Given: more matching chunks than the configured cap
	s := newTestStore(t)
	ctx := context.Background()

	var chunks []Chunk
	for i := 0; i < 15; i++ {
		chunks = append(chunks, testChunk(fmt.Sprintf("paragraph number %d", i), i, unitVec(0)))
	}
	_, err := s.ReplaceDocument(ctx, "/notes/a.md", "h", chunks)
	require.NoError(t, err)

	// When: asking for far more than MaxResults allows
	results, err := s.Search(ctx, unitVec(0), 1000)

	// Then: the cap of 10 wins
	require.NoError(t, err)
	assert.Len(t, results, 10)
}

func TestSearch_NonPositiveLimitIsAnError(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Search(context.Background(), unitVec(0), 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))

	_, err = s.Search(context.Background(), unitVec(0), -3)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Search(context.Background(), []float32{1, 0}, 5)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDimensionMismatch, errors.GetCode(err))
}

func TestStats_CountsChunksAndDocuments(t *testing.T) {
	// Given: two documents with three chunks total
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.ReplaceDocument(ctx, "/notes/a.md", "ha", []Chunk{
		testChunk("alpha", 0, unitVec(0)),
		testChunk("beta", 1, unitVec(1)),
	})
	require.NoError(t, err)
	_, err = s.ReplaceDocument(ctx, "/notes/b.md", "hb", []Chunk{
		testChunk("gamma", 0, unitVec(2)),
	})
	require.NoError(t, err)

	// When: stats are computed
	stats, err := s.Stats(ctx)
	require.NoError(t, err)

	// Then: counts and backend are reported
	assert.Equal(t, int64(3), stats.TotalChunks)
	assert.Equal(t, int64(2), stats.TotalDocuments)
	assert.Equal(t, BackendFallback, stats.Backend)
	assert.Positive(t, stats.DatabaseBytes)
}

func TestVectorCodec_RoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75, 0}

	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}

func TestVectorCodec_RejectsTruncatedBlob(t *testing.T) {
	_, err := decodeVector([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestClosedStore_RejectsOperations(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.Search(context.Background(), unitVec(0), 5)
	assert.Error(t, err)

	_, err = s.ReplaceDocument(context.Background(), "/a.md", "h", nil)
	assert.Error(t, err)
}
