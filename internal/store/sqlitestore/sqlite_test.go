package sqlitestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store"
	"github.com/idilsaglam/todosync/internal/store/storetest"
)

// testDBPath returns a temporary path for test databases
func testDBPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "todos.db")
}

func TestContract(t *testing.T) {
	storetest.Run(t, storetest.Opener{
		Open: func(t *testing.T) store.Store {
			db, err := Open(testDBPath(t))
			if err != nil {
				t.Fatalf("Open() failed: %v", err)
			}
			t.Cleanup(func() { db.Close() })
			return db
		},
		Reopen: func(t *testing.T, prev store.Store) store.Store {
			path := prev.(*DB).Path()
			if err := prev.Close(); err != nil {
				t.Fatalf("Close() failed: %v", err)
			}
			db, err := Open(path)
			if err != nil {
				t.Fatalf("reopen failed: %v", err)
			}
			t.Cleanup(func() { db.Close() })
			return db
		},
	})
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "todos.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestOpen_Unavailable(t *testing.T) {
	// A regular file where the parent directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(filepath.Join(blocker, "todos.db"))
	if !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("Open() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestSchema_Idempotent(t *testing.T) {
	db, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	if err := db.initSchema(context.Background()); err != nil {
		t.Errorf("second initSchema() failed: %v", err)
	}
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	db, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	for _, it := range []model.Item{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}, {ID: 1, Text: "a2"}} {
		if err := db.Upsert(ctx, it); err != nil {
			t.Fatalf("Upsert() failed: %v", err)
		}
	}

	n, err := db.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestWriteAfterClose(t *testing.T) {
	db, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	conn := db.conn
	if err := db.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Use the closed handle directly to provoke a driver error.
	db.conn = conn
	err = db.Upsert(context.Background(), model.Item{ID: 1, Text: "a"})
	if !errors.Is(err, store.ErrStoreWriteFailed) {
		t.Errorf("Upsert() on closed db error = %v, want ErrStoreWriteFailed", err)
	}
	db.conn = nil
}
