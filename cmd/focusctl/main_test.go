package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dailyfocus/focus/internal/focus"
	"github.com/dailyfocus/focus/internal/storage"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("focusctl %v: %v", args, err)
	}
	return out.String()
}

func TestStories(t *testing.T) {
	out := execute(t, "stories")
	if !strings.Contains(out, "s1-001") || !strings.Contains(out, "Lighthouse") {
		t.Errorf("expected bundled story in output:\n%s", out)
	}
}

func TestStatsFromFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kv")
	t.Setenv("DATA_DIR", dir)

	kv, err := storage.NewFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Save(context.Background(), storage.StatsKey, `{"storiesCompleted":3,"xp":300,"level":2,"dayStreak":2}`); err != nil {
		t.Fatal(err)
	}

	out := execute(t, "--backend", "file", "stats")
	var got focus.FocusStats
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if got.StoriesCompleted != 3 || got.Level != 2 {
		t.Errorf("unexpected stats %+v", got)
	}
}

func TestProgressEmptyStore(t *testing.T) {
	out := execute(t, "--backend", "memory", "progress")
	if !strings.Contains(out, `"completedStoryIds": []`) {
		t.Errorf("expected empty progress, got:\n%s", out)
	}
}

func TestMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus.db")
	out := execute(t, "migrate", "--db", path)
	if !strings.Contains(out, "schema version 1") {
		t.Errorf("unexpected output %q", out)
	}
}
