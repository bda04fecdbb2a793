package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/nibzard/task-cli/internal/task"
)

var created = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func sample() task.Collection {
	return task.Collection{
		{ID: 1, Description: "Buy groceries", Status: task.StatusTodo, CreatedAt: task.NewTimestamp(created)},
		{ID: 3, Description: "Write report", Status: task.StatusDone, CreatedAt: task.NewTimestamp(created), UpdatedAt: task.NewTimestamp(created.Add(time.Hour))},
	}
}

func newStore(t *testing.T, opts FileOptions) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "tasks.json"), opts)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore("", FileOptions{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := newStore(t, FileOptions{})
	tasks, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty non-nil collection, got %#v", tasks)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("Load should not create the file")
	}
}

func TestLoadBlankFile(t *testing.T) {
	s := newStore(t, FileOptions{})
	if err := os.WriteFile(s.Path(), []byte(" \n\t"), 0o644); err != nil {
		t.Fatal(err)
	}
	tasks, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(tasks))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		name := "direct"
		if atomic {
			name = "atomic"
		}
		t.Run(name, func(t *testing.T) {
			s := newStore(t, FileOptions{AtomicWrite: atomic})
			ctx := context.Background()

			if err := s.Save(ctx, sample()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			first, err := os.ReadFile(s.Path())
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.HasSuffix(first, []byte("}\n]\n")) || !bytes.Contains(first, []byte("\n  {\n    \"id\": 1,")) {
				t.Errorf("unexpected layout:\n%s", first)
			}

			loaded, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(loaded) != 2 || loaded[1].ID != 3 || !loaded[1].UpdatedAt.Equal(created.Add(time.Hour)) {
				t.Errorf("loaded %+v", loaded)
			}

			if err := s.Save(ctx, loaded); err != nil {
				t.Fatalf("second Save: %v", err)
			}
			second, _ := os.ReadFile(s.Path())
			if !bytes.Equal(first, second) {
				t.Errorf("re-saving changed the file:\n%s\n---\n%s", first, second)
			}

			entries, _ := os.ReadDir(filepath.Dir(s.Path()))
			for _, e := range entries {
				if strings.Contains(e.Name(), ".tmp-") {
					t.Errorf("temp file left behind: %s", e.Name())
				}
			}
		})
	}
}

func TestSaveEmptyWritesArray(t *testing.T) {
	s := newStore(t, FileOptions{AtomicWrite: true})
	if err := s.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(s.Path())
	if string(data) != "[]\n" {
		t.Errorf("got %q", data)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tasks.json")
	s, err := NewFileStore(path, FileOptions{AtomicWrite: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestLoadCorruptData(t *testing.T) {
	tests := map[string]string{
		"not json":     "{{{",
		"wrong shape":  `{"id": 1}`,
		"bad status":   `[{"id": 1, "description": "a", "status": "blocked", "createdAt": "2024-01-01T10:00:00Z"}]`,
		"duplicate id": `[{"id": 1, "description": "a", "status": "todo", "createdAt": "2024-01-01T10:00:00Z"}, {"id": 1, "description": "b", "status": "todo", "createdAt": "2024-01-01T10:00:00Z"}]`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, FileOptions{})
			if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := s.Load(context.Background())
			if !errors.Is(err, ErrCorruptData) {
				t.Errorf("expected ErrCorruptData, got %v", err)
			}
			if errors.Is(err, ErrIOFailure) {
				t.Error("corrupt data should not be reported as an i/o failure")
			}
		})
	}
}

func TestIOFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("read directory", func(t *testing.T) {
		dir := t.TempDir()
		s, _ := NewFileStore(dir, FileOptions{})
		if _, err := s.Load(ctx); !errors.Is(err, ErrIOFailure) {
			t.Errorf("expected ErrIOFailure, got %v", err)
		}
	})

	t.Run("parent is a file", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		s, _ := NewFileStore(filepath.Join(blocker, "tasks.json"), FileOptions{AtomicWrite: true})
		if err := s.Save(ctx, sample()); !errors.Is(err, ErrIOFailure) {
			t.Errorf("expected ErrIOFailure, got %v", err)
		}
	})
}

func TestUpdate(t *testing.T) {
	s := newStore(t, FileOptions{AtomicWrite: true, Lock: true})
	ctx := context.Background()

	err := s.Update(ctx, func(tasks task.Collection) (task.Collection, error) {
		repo := task.NewRepository(tasks, task.WithClock(func() time.Time { return created }))
		_, err := repo.Create("first")
		return repo.Tasks(), err
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	var seen int
	err = s.View(ctx, func(tasks task.Collection) error {
		seen = len(tasks)
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if seen != 1 {
		t.Errorf("View saw %d tasks, want 1", seen)
	}
	if _, err := os.Stat(s.LockPath()); err != nil {
		t.Errorf("lock file missing: %v", err)
	}
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	s := newStore(t, FileOptions{AtomicWrite: true})
	ctx := context.Background()
	if err := s.Save(ctx, sample()); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(s.Path())

	boom := errors.New("boom")
	err := s.Update(ctx, func(tasks task.Collection) (task.Collection, error) {
		tasks[0].Description = "changed"
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	after, _ := os.ReadFile(s.Path())
	if !bytes.Equal(before, after) {
		t.Error("failed update modified the file")
	}
}

func TestUpdateCorruptFileUntouched(t *testing.T) {
	s := newStore(t, FileOptions{AtomicWrite: true})
	if err := os.WriteFile(s.Path(), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	called := false
	err := s.Update(context.Background(), func(tasks task.Collection) (task.Collection, error) {
		called = true
		return tasks, nil
	})
	if !errors.Is(err, ErrCorruptData) {
		t.Errorf("expected ErrCorruptData, got %v", err)
	}
	if called {
		t.Error("update func ran on corrupt data")
	}
	if data, _ := os.ReadFile(s.Path()); string(data) != "not json" {
		t.Errorf("file rewritten: %q", data)
	}
}

func TestLockTimeout(t *testing.T) {
	s := newStore(t, FileOptions{Lock: true, LockTimeout: 100 * time.Millisecond})

	holder := flock.New(s.LockPath())
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not take lock: %v", err)
	}
	defer holder.Unlock()

	start := time.Now()
	err = s.Update(context.Background(), func(tasks task.Collection) (task.Collection, error) {
		t.Error("update ran while another process held the lock")
		return tasks, nil
	})
	if !errors.Is(err, ErrIOFailure) {
		t.Errorf("expected ErrIOFailure, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("lock wait took %v", elapsed)
	}

	if err := s.View(context.Background(), func(task.Collection) error { return nil }); !errors.Is(err, ErrIOFailure) {
		t.Errorf("View: expected ErrIOFailure, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	s := newStore(t, FileOptions{Lock: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load: expected context.Canceled, got %v", err)
	}
	if err := s.Save(ctx, sample()); !errors.Is(err, context.Canceled) {
		t.Errorf("Save: expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("canceled save wrote the file")
	}
}

func TestDecodeFillsNil(t *testing.T) {
	tasks, err := Decode([]byte("[]"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tasks == nil {
		t.Error("Decode returned nil for an empty array")
	}
}
