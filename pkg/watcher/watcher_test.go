package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sameehj/dataworks/pkg/handlers"
	"github.com/sameehj/dataworks/pkg/markup"
	"github.com/sameehj/dataworks/pkg/sandbox"
)

type countingConverter struct {
	mu    sync.Mutex
	names []string
}

func (c *countingConverter) Matches(name string) bool {
	return strings.HasSuffix(name, ".md")
}

func (c *countingConverter) Convert(_ *sandbox.IO, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
	return nil
}

func (c *countingConverter) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

func startWatcher(t *testing.T, conv Converter, delay time.Duration) string {
	t.Helper()
	root := t.TempDir()
	guard, err := sandbox.NewGuard(root)
	require.NoError(t, err)

	w := New(sandbox.NewIO(guard), conv, delay)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher stopped early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}
	return root
}

func TestWatcherConvertsChangedMarkdown(t *testing.T) {
	md, err := handlers.NewConvertMarkdown(markup.NewMarkdown(false), []string{"*.md"})
	require.NoError(t, err)
	root := startWatcher(t, md, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("# Live\n"), 0o644))

	out := filepath.Join(root, "notes.html")
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && strings.Contains(string(data), "<h1>Live</h1>")
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcherRestart(t *testing.T) {
	guard, err := sandbox.NewGuard(t.TempDir())
	require.NoError(t, err)
	w := New(sandbox.NewIO(guard), &countingConverter{}, 10*time.Millisecond)

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Start(ctx) }()
		select {
		case <-w.Ready():
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not start")
		}
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	conv := &countingConverter{}
	root := startWatcher(t, conv, 200*time.Millisecond)

	path := filepath.Join(root, "burst.md")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", i+1)), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool { return len(conv.calls()) > 0 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, []string{"burst.md"}, conv.calls())
}
