package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parasearch/parasearch/internal/embed"
	"github.com/parasearch/parasearch/internal/errors"
	"github.com/parasearch/parasearch/internal/pipeline"
	"github.com/parasearch/parasearch/internal/segment"
	"github.com/parasearch/parasearch/internal/store"
)

func testConfig() Config {
	return Config{
		Extensions:      []string{".md", ".markdown", ".tex", ".latex"},
		ExcludePatterns: []string{"**/.git/**", "**/node_modules/**"},
		Debounce:        30 * time.Millisecond,
		MaxDirectories:  3,
		Recursive:       true,
		QueueSize:       8,
	}
}

func newTestManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()

	st, err := store.New(store.Config{
		Path:                filepath.Join(t.TempDir(), "test.db"),
		Dimensions:          32,
		SimilarityThreshold: 0.01,
		MaxResults:          10,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	seg := segment.New(segment.Options{MinLength: 20, MaxLength: 2000, Overlap: 100})
	pipe := pipeline.New(st, embed.NewStaticEmbedder(32), seg, nil)

	m, err := NewManager(testConfig(), pipe, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, st
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestStartWatch_RejectsMissingPath(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.StartWatch(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.GetCode(err))
}

func TestStartWatch_RejectsRegularFile(t *testing.T) {
	m, _ := newTestManager(t)
	path := filepath.Join(t.TempDir(), "file.md")
	writeFile(t, path, "content")

	_, err := m.StartWatch(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotADirectory, errors.GetCode(err))
}

func TestStartWatch_RejectsDuplicate(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()

	_, err := m.StartWatch(dir)
	require.NoError(t, err)

	_, err = m.StartWatch(dir)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAlreadyWatched, errors.GetCode(err))
}

func TestStartWatch_EnforcesDirectoryCeiling(t *testing.T) {
	// Given: a manager capped at three directories, all in use
	m, _ := newTestManager(t)
	for i := 0; i < 3; i++ {
		_, err := m.StartWatch(t.TempDir())
		require.NoError(t, err)
	}

	// When: a fourth watch is requested
	_, err := m.StartWatch(t.TempDir())

	// Then: the ceiling rejects it
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWatchCeiling, errors.GetCode(err))

	// And: stopping one frees a slot
	watched := m.ListWatched()
	require.NoError(t, m.StopWatch(watched[0].Path))
	_, err = m.StartWatch(t.TempDir())
	assert.NoError(t, err)
}

func TestStartWatch_InitialScanCountsEligibleFiles(t *testing.T) {
	// Given: a directory with a mix of eligible and ineligible files
	m, _ := newTestManager(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "text")
	writeFile(t, filepath.Join(dir, "b.tex"), "text")
	writeFile(t, filepath.Join(dir, "c.txt"), "text")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	writeFile(t, filepath.Join(dir, "sub", "d.markdown"), "text")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0755))
	writeFile(t, filepath.Join(dir, "node_modules", "e.md"), "text")

	// When: the watch starts
	info, err := m.StartWatch(dir)
	require.NoError(t, err)

	// Then: only indexable files outside excluded dirs are counted
	assert.Equal(t, 3, info.FileCount)
}

func TestStartWatch_ReportsRecursiveAndActive(t *testing.T) {
	m, _ := newTestManager(t)

	info, err := m.StartWatch(t.TempDir())
	require.NoError(t, err)

	assert.True(t, info.Recursive)
	assert.True(t, info.Active)

	listed := m.ListWatched()
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Recursive)
	assert.True(t, listed[0].Active)
}

func TestStopWatch_UnknownPathIsAnError(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.StopWatch(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotWatched, errors.GetCode(err))
}

func TestListWatched_SortedByPath(t *testing.T) {
	m, _ := newTestManager(t)
	for i := 0; i < 3; i++ {
		_, err := m.StartWatch(t.TempDir())
		require.NoError(t, err)
	}

	infos := m.ListWatched()
	require.Len(t, infos, 3)
	assert.True(t, infos[0].Path < infos[1].Path)
	assert.True(t, infos[1].Path < infos[2].Path)
}

func TestManager_ModifyBurstIndexesOnce(t *testing.T) {
	// Given: a running manager watching a directory
	m, st := newTestManager(t)
	require.NoError(t, m.Start(context.Background()))

	dir := t.TempDir()
	_, err := m.StartWatch(dir)
	require.NoError(t, err)

	// When: a document is written several times in quick succession
	path := filepath.Join(dir, "note.md")
	for i := 0; i < 3; i++ {
		writeFile(t, path, "A paragraph long enough to clear the minimum length requirement.\n")
		time.Sleep(5 * time.Millisecond)
	}

	// Then: the document ends up indexed
	require.Eventually(t, func() bool {
		chunks, err := st.DocumentChunks(context.Background(), path)
		return err == nil && len(chunks) == 1
	}, 5*time.Second, 20*time.Millisecond)

	// And: the burst was coalesced into few applications
	stats := m.Stats()
	assert.LessOrEqual(t, stats.EventsProcessed, uint64(2))
	assert.Zero(t, stats.EventsDropped)
}

func TestManager_DeleteRemovesFromIndex(t *testing.T) {
	// Given: an indexed document under watch
	m, st := newTestManager(t)
	require.NoError(t, m.Start(context.Background()))

	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	writeFile(t, path, "A paragraph long enough to clear the minimum length requirement.\n")

	_, err := m.StartWatch(dir)
	require.NoError(t, err)

	// Trigger indexing via a write
	writeFile(t, path, "A changed paragraph long enough to clear the minimum length.\n")
	require.Eventually(t, func() bool {
		chunks, err := st.DocumentChunks(context.Background(), path)
		return err == nil && len(chunks) == 1
	}, 5*time.Second, 20*time.Millisecond)

	// When: the file is deleted
	require.NoError(t, os.Remove(path))

	// Then: its chunks leave the index
	require.Eventually(t, func() bool {
		chunks, err := st.DocumentChunks(context.Background(), path)
		return err == nil && len(chunks) == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestManager_IgnoresIneligibleExtensions(t *testing.T) {
	m, st := newTestManager(t)
	require.NoError(t, m.Start(context.Background()))

	dir := t.TempDir()
	_, err := m.StartWatch(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "A paragraph long enough to clear the minimum length requirement.\n")

	time.Sleep(200 * time.Millisecond)
	chunks, err := st.DocumentChunks(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestStopAll_HaltsConsumerAndDebouncer(t *testing.T) {
	// Given: a running manager with one watch
	m, _ := newTestManager(t)
	require.NoError(t, m.Start(context.Background()))
	dir := t.TempDir()
	_, err := m.StartWatch(dir)
	require.NoError(t, err)

	// When: everything is stopped
	m.StopAll()
	time.Sleep(50 * time.Millisecond)

	// Then: events queued afterwards are never processed
	for i := 0; i < 3; i++ {
		m.enqueue(FileEvent{Path: filepath.Join(dir, "a.md"), Operation: OpModify, Time: time.Now()})
	}
	time.Sleep(100 * time.Millisecond)

	stats := m.Stats()
	assert.Zero(t, stats.WatchedDirectories)
	assert.Zero(t, stats.EventsProcessed)
	assert.Equal(t, 3, stats.QueueLength)

	// And: the debouncer passes nothing through either
	m.debouncer.Add(FileEvent{Path: filepath.Join(dir, "b.md"), Operation: OpModify, Time: time.Now()})
	assert.Equal(t, 3, m.Stats().QueueLength)
}

func TestApply_ReadFailureKeepsIndexedChunks(t *testing.T) {
	// Given: an indexed document
	m, st := newTestManager(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	writeFile(t, path, "A paragraph long enough to clear the minimum length requirement.\n")

	result, err := m.pipe.Process(context.Background(), path, true)
	require.NoError(t, err)
	require.Equal(t, 1, result.ChunksProcessed)

	// When: the file becomes unreadable without disappearing
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Symlink(path, path))
	m.apply(context.Background(), FileEvent{Path: path, Operation: OpModify, Time: time.Now()})

	// Then: the failure is counted and the indexed chunks survive
	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.EventsFailed)
	assert.Zero(t, stats.EventsProcessed)

	chunks, err := st.DocumentChunks(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestEnqueue_DropsWhenQueueFull(t *testing.T) {
	// Given: an unstarted manager, so nothing drains the queue
	m, _ := newTestManager(t)

	// When: more events arrive than the queue holds
	for i := 0; i < 20; i++ {
		m.enqueue(FileEvent{Path: "/notes/a.md", Operation: OpModify, Time: time.Now()})
	}

	// Then: the overflow is counted as dropped, not blocked on
	stats := m.Stats()
	assert.Equal(t, 8, stats.QueueLength)
	assert.Equal(t, uint64(12), stats.EventsDropped)
}

func TestEligible_MatchesExtensionsCaseInsensitively(t *testing.T) {
	m, _ := newTestManager(t)

	assert.True(t, m.eligible("/notes/a.md"))
	assert.True(t, m.eligible("/notes/A.MD"))
	assert.True(t, m.eligible("/notes/paper.tex"))
	assert.False(t, m.eligible("/notes/a.txt"))
	assert.False(t, m.eligible("/notes/.git/a.md"))
}
