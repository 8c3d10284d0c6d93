package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForFile(t *testing.T) {
	l := ForFile("/tmp/report.md")
	assert.Equal(t, "/tmp/report.md.lock", l.Path())
}

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "a.lock")
	l := New(path)

	require.NoError(t, l.Acquire(context.Background()))
	assert.FileExists(t, path)

	other := New(path)
	ok, err := other.TryAcquire()
	require.NoError(t, err)
	assert.False(t, ok, "second handle must not get a held lock")

	require.NoError(t, l.Release())

	ok, err = other.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, other.Release())
}

func TestAcquireHonorsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busy.lock")
	holder := New(path)
	require.NoError(t, holder.Acquire(context.Background()))
	defer holder.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := New(path).Acquire(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to acquire lock")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "report.md")

	require.NoError(t, AtomicWrite(path, []byte("first"), 0644))
	require.NoError(t, AtomicWrite(path, []byte("second"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestAtomicWriteFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.md")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0644))

	// A directory where the file should be makes the rename fail.
	target := filepath.Join(dir, "taken")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0755))
	assert.Error(t, AtomicWrite(target, []byte("x"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestWriteFileConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			content := strings.Repeat(fmt.Sprintf("%d", i), 1000)
			assert.NoError(t, WriteFile(context.Background(), path, []byte(content), 0644))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 1000)
	assert.Equal(t, strings.Repeat(string(data[0]), 1000), string(data), "content must come from a single writer")
}
