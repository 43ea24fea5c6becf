package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dailyfocus/focus/internal/database"
	"github.com/dailyfocus/focus/internal/migrations"
	"github.com/dailyfocus/focus/internal/storage"
)

func newSQLite(t *testing.T) storage.Store {
	t.Helper()
	db, err := database.Open(context.Background(), database.MemoryPath)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewSQLite(db)
}

func newRedis(t *testing.T) storage.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return storage.NewRedis(rdb, "focus:")
}

func newFile(t *testing.T) storage.Store {
	t.Helper()
	f, err := storage.NewFile(filepath.Join(t.TempDir(), "kv"))
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	return f
}

func TestBackends(t *testing.T) {
	backends := map[string]func(*testing.T) storage.Store{
		"memory": func(*testing.T) storage.Store { return storage.NewMemory() },
		"sqlite": newSQLite,
		"redis":  newRedis,
		"file":   newFile,
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			kv := open(t)

			if err := kv.Check(ctx); err != nil {
				t.Fatalf("check: %v", err)
			}

			_, ok, err := kv.Load(ctx, storage.StatsKey)
			if err != nil {
				t.Fatalf("load missing: %v", err)
			}
			if ok {
				t.Fatal("expected missing key")
			}

			if err := kv.Save(ctx, storage.StatsKey, `{"xp":100}`); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := kv.Save(ctx, storage.StatsKey, `{"xp":200}`); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			got, ok, err := kv.Load(ctx, storage.StatsKey)
			if err != nil || !ok {
				t.Fatalf("load: ok=%v err=%v", ok, err)
			}
			if got != `{"xp":200}` {
				t.Errorf("expected last write to win, got %s", got)
			}

			// Keys with separators must not escape the backend's namespace.
			if err := kv.Save(ctx, storage.ProgressKey, `{}`); err != nil {
				t.Fatalf("save slash key: %v", err)
			}
			if _, ok, _ := kv.Load(ctx, storage.ProgressKey); !ok {
				t.Error("expected slash key to round-trip")
			}

			if err := kv.Delete(ctx, storage.StatsKey); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := kv.Delete(ctx, storage.StatsKey); err != nil {
				t.Fatalf("second delete should be a no-op: %v", err)
			}
			if _, ok, _ := kv.Load(ctx, storage.StatsKey); ok {
				t.Error("expected key to be gone after delete")
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kv")
	f, err := storage.NewFile(dir)
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	if err := f.Save(context.Background(), storage.ProgressKey, `{}`); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file, got %d", len(entries))
	}
	if want := "focus-trainer%2Fprogress%2Fv1.json"; entries[0].Name() != want {
		t.Errorf("expected %s, got %s", want, entries[0].Name())
	}
}

func TestRedisPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	kv := storage.NewRedis(rdb, "focus:")
	if err := kv.Save(context.Background(), storage.StatsKey, "1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, err := mr.Get("focus:" + storage.StatsKey); err != nil || got != "1" {
		t.Errorf("expected prefixed key, got %q (%v)", got, err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := storage.Open(ctx, storage.Options{Backend: "memory"})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer s.Close()
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := storage.Open(ctx, storage.Options{
			Backend: "sqlite",
			DBPath:  filepath.Join(t.TempDir(), "focus.db"),
		})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer s.Close()
		if err := s.Save(ctx, "k", "v"); err != nil {
			t.Fatalf("save: %v", err)
		}
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := storage.Open(ctx, storage.Options{
			Backend:  "redis",
			RedisURL: "redis://" + mr.Addr(),
		})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer s.Close()
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := storage.Open(ctx, storage.Options{Backend: "badger"})
		if !errors.Is(err, storage.ErrUnknownBackend) {
			t.Fatalf("expected ErrUnknownBackend, got %v", err)
		}
	})
}
