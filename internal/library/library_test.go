package library

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "2024-05-01 14:03:22", DisplayName("ScreenRecord_2024-05-01_14-03-22.mp4"))
	assert.Equal(t, "2024-05-01 14:03:22 (2)", DisplayName("ScreenRecord_2024-05-01_14-03-22_1.mp4"))
	assert.Equal(t, "holiday.mp4", DisplayName("holiday.mp4"))
}

func TestLoadListsMp4NewestFirst(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(dir, "ScreenRecord_2024-05-01_12-00-00.mp4"), "a", base)
	writeFile(t, filepath.Join(dir, "ScreenRecord_2024-05-01_13-00-00.mp4"), "bb", base.Add(time.Hour))
	writeFile(t, filepath.Join(dir, "notes.txt"), "x", base)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mp4"), 0755))

	idx := NewIndex(dir, "")
	require.NoError(t, idx.Load())

	list := idx.List()
	require.Len(t, list, 2)
	assert.Equal(t, "ScreenRecord_2024-05-01_13-00-00.mp4", list[0].Name)
	assert.Equal(t, int64(2), list[0].Size)
	assert.Equal(t, "2024-05-01 13:00:00", list[0].DisplayName)
}

func TestLoadMissingDirIsEmpty(t *testing.T) {
	idx := NewIndex(filepath.Join(t.TempDir(), "missing"), "")
	require.NoError(t, idx.Load())
	assert.Empty(t, idx.List())
}

func TestRescanAddsAndNotifies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ScreenRecord_2024-05-01_12-00-00.mp4")
	writeFile(t, path, "video", time.Now())

	idx := NewIndex(dir, "")
	var got []Change
	idx.Subscribe(func(c Change) { got = append(got, c) })

	idx.Rescan(path)

	require.Len(t, got, 1)
	assert.Equal(t, Added, got[0].Kind)
	assert.Equal(t, path, got[0].Recording.Path)
	assert.Len(t, idx.List(), 1)
}

func TestRescanMissingFileIsLoggedOnly(t *testing.T) {
	idx := NewIndex(t.TempDir(), "")
	called := false
	idx.Subscribe(func(Change) { called = true })

	idx.Rescan("/does/not/exist.mp4")

	assert.False(t, called)
	assert.Empty(t, idx.List())
}

func TestRescanRunsCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "ScreenRecord_2024-05-01_12-00-00.mp4")
	writeFile(t, path, "video", time.Now())

	marker := filepath.Join(dir, "scanned")
	script := filepath.Join(dir, "scan.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$1\" > "+marker+"\n"), 0755))

	idx := NewIndex(dir, script+" {path}")
	idx.Rescan(path)

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", string(data))
}

func TestWatchReloadsOnRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ScreenRecord_2024-05-01_12-00-00.mp4")
	writeFile(t, path, "video", time.Now())

	idx := NewIndex(dir, "")
	require.NoError(t, idx.Load())
	require.Len(t, idx.List(), 1)

	var mu sync.Mutex
	reloads := 0
	idx.Subscribe(func(c Change) {
		if c.Kind == Reloaded {
			mu.Lock()
			reloads++
			mu.Unlock()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- idx.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// give the watcher time to register the directory
	require.Eventually(t, func() bool {
		other := filepath.Join(dir, "probe.mp4")
		os.WriteFile(other, []byte("x"), 0644)
		defer os.Remove(other)
		mu.Lock()
		defer mu.Unlock()
		return reloads > 0
	}, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		for _, r := range idx.List() {
			if r.Path == path {
				return false
			}
		}
		return true
	}, 3*time.Second, 20*time.Millisecond)
}
