package jsonstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store"
	"github.com/idilsaglam/todosync/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, storetest.Opener{
		Open: func(t *testing.T) store.Store {
			f, err := Open(filepath.Join(t.TempDir(), "todos.json"))
			if err != nil {
				t.Fatalf("Open() failed: %v", err)
			}
			return f
		},
		Reopen: func(t *testing.T, prev store.Store) store.Store {
			f, err := Open(prev.(*File).Path())
			if err != nil {
				t.Fatalf("reopen failed: %v", err)
			}
			return f
		},
	})
}

func TestOpen_Directory(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if want := filepath.Join(dir, DefaultFileName); f.Path() != want {
		t.Errorf("Path() = %q, want %q", f.Path(), want)
	}
}

func TestOpen_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("Open() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestOpen_RepeatedIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	raw := `[
  {"id": 1, "todo": "old", "completed": false, "userId": 1},
  {"id": 2, "todo": "b", "completed": false, "userId": 1},
  {"id": 1, "todo": "new", "completed": true, "userId": 1}
]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()

	got, _ := f.List(ctx)
	want := []model.Item{
		{ID: 1, Text: "new", Completed: true, OwnerID: 1},
		{ID: 2, Text: "b", OwnerID: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("List() mismatch (-want +got):\n%s", diff)
	}

	if err := f.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, _ = reopened.List(ctx)
	if diff := cmp.Diff(want[1:], got); diff != "" {
		t.Errorf("after Delete(1) (-want +got):\n%s", diff)
	}
}

func TestUpsert_WritesWireNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := f.Upsert(context.Background(), model.Item{ID: 1, Text: "A", OwnerID: 1}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "[\n  {\n    \"id\": 1,\n    \"todo\": \"A\",\n    \"completed\": false,\n    \"userId\": 1\n  }\n]"
	if string(b) != want {
		t.Errorf("file contents = %s, want %s", b, want)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestUpsert_FailureKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todos.json")
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()
	if err := f.Upsert(ctx, model.Item{ID: 1, Text: "A"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	// A directory where the temp file should go makes the write fail.
	if err := os.Mkdir(path+".tmp", 0o755); err != nil {
		t.Fatal(err)
	}
	err = f.Upsert(ctx, model.Item{ID: 2, Text: "B"})
	if !errors.Is(err, store.ErrStoreWriteFailed) {
		t.Fatalf("Upsert() error = %v, want ErrStoreWriteFailed", err)
	}

	got, _ := f.List(ctx)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("List() = %+v, want only id 1", got)
	}
}
