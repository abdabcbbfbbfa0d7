package hotreload

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	exclude := DefaultConfig(dir).excludeFunc()
	w, err := NewWatcher(dir, 30*time.Millisecond, exclude, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	return w
}

func expectEvent(t *testing.T, w *Watcher, want string) {
	t.Helper()
	select {
	case got := <-w.Events():
		if got != want {
			t.Errorf("event = %s, want %s", got, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no event for %s", want)
	}
}

func expectSilence(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case got := <-w.Events():
		t.Errorf("unexpected event %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherEmitsSourceChanges(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	path := filepath.Join(dir, "views.go")
	if err := os.WriteFile(path, []byte("package app\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, path)
}

// Several rapid writes to one path coalesce into a single event.
func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	path := filepath.Join(dir, "views.go")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("package app\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	expectEvent(t, w, path)
	expectSilence(t, w)
}

func TestWatcherIgnoresUninteresting(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	for _, name := range []string{"notes.txt", "views_test.go"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	expectSilence(t, w)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	sub := filepath.Join(dir, "views")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to pick up the new directory watch.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "index.go")
	if err := os.WriteFile(path, []byte("package views\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectEvent(t, w, path)
}
