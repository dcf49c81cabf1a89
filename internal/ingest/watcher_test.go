package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradable(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/in/report.png", true},
		{"/in/report.PNG", true},
		{"/in/report.jpg", true},
		{"/in/report.jpeg", true},
		{"/in/report.pdf", true},
		{"/in/report.txt", false},
		{"/in/report", false},
		{"/in/.hidden", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, gradable(tt.path, map[string]struct{}{
				"png": {}, "jpg": {}, "jpeg": {}, "pdf": {},
			}))
		})
	}
}

func TestStartWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}

func TestStartWatcherMissingRoot(t *testing.T) {
	cfg := WatchConfig{Roots: []string{filepath.Join(t.TempDir(), "gone")}}
	_, _, err := StartWatcher(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestStartWatcherInitialScan(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "report.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true}, nil)
	require.NoError(t, err)

	select {
	case p := <-evCh:
		assert.Equal(t, filepath.Join(root, "report.png"), p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan emitted nothing")
	}
}

func TestStartWatcherEmitsCreatedReports(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}}, nil)
	require.NoError(t, err)

	path := filepath.Join(root, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case p := <-evCh:
			if p == path {
				return
			}
		case <-deadline:
			t.Fatal("created report was not emitted")
		}
	}
}

func TestStartWatcherCancelWithPendingDebounce(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, Debounce: time.Hour}, nil)
	require.NoError(t, err)

	// queue a report behind the debounce window, then tear down before it fires
	require.NoError(t, os.WriteFile(filepath.Join(root, "report.png"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case p, open := <-evCh:
		assert.False(t, open, "no debounced path may be delivered after cancel, got %q", p)
	case <-time.After(2 * time.Second):
		t.Fatal("event channel did not close")
	}
}

func TestStartWatcherStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}}, nil)
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-evCh:
		assert.False(t, open, "event channel must close after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("event channel did not close")
	}
}
