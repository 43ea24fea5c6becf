package content_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dailyfocus/focus/internal/content"
)

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stories.yaml")
	if err := os.WriteFile(file, []byte("stories:\n  - id: first\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cat := content.NewCatalog(nil)
	w := content.NewWatcher(dir, cat, slog.New(slog.DiscardHandler))
	if err := w.Reload(); err != nil {
		t.Fatalf("initial reload: %v", err)
	}
	if _, ok := cat.Story("first"); !ok {
		t.Fatal("expected first story after reload")
	}

	reloaded := make(chan int, 4)
	w.OnReload = func(n int) { reloaded <- n }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(file, []byte("stories:\n  - id: first\n  - id: second\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case n := <-reloaded:
		if n != 2 {
			t.Errorf("expected 2 stories after reload, got %d", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	if _, ok := cat.Story("second"); !ok {
		t.Error("expected second story after reload")
	}
}

func TestWatcherKeepsCatalogOnBadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("stories: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cat := content.NewCatalog(content.Default())
	w := content.NewWatcher(dir, cat, slog.New(slog.DiscardHandler))
	if err := w.Reload(); err == nil {
		t.Fatal("expected parse error")
	}
	if cat.Len() == 0 {
		t.Error("expected previous catalog to survive a failed reload")
	}
}
