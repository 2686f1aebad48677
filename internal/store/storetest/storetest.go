// Package storetest holds the behaviour every Local Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store"
)

// Opener returns a fresh store. Reopen returns a new handle on the same
// underlying data, or nil when the backend does not persist.
type Opener struct {
	Open   func(t *testing.T) store.Store
	Reopen func(t *testing.T, prev store.Store) store.Store
}

// Run exercises the store contract against a backend.
func Run(t *testing.T, o Opener) {
	t.Run("EmptyList", func(t *testing.T) {
		s := o.Open(t)
		got, err := s.List(context.Background())
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("List() = %+v, want empty", got)
		}
	})

	t.Run("UpsertInsertAndOverwrite", func(t *testing.T) {
		ctx := context.Background()
		s := o.Open(t)

		mustUpsert(t, s, model.Item{ID: 2, Text: "b", OwnerID: 1})
		mustUpsert(t, s, model.Item{ID: 1, Text: "a", OwnerID: 1})
		mustUpsert(t, s, model.Item{ID: 2, Text: "b2", Completed: true, OwnerID: 9})

		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		want := []model.Item{
			{ID: 2, Text: "b2", Completed: true, OwnerID: 9},
			{ID: 1, Text: "a", OwnerID: 1},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("List() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ReplaceAbsentIsNoop", func(t *testing.T) {
		ctx := context.Background()
		s := o.Open(t)
		mustUpsert(t, s, model.Item{ID: 1, Text: "a"})

		if err := s.Replace(ctx, model.Item{ID: 7, Text: "ghost"}); err != nil {
			t.Fatalf("Replace(absent) failed: %v", err)
		}
		if err := s.Replace(ctx, model.Item{ID: 1, Text: "A", Completed: true}); err != nil {
			t.Fatalf("Replace(present) failed: %v", err)
		}

		got, _ := s.List(ctx)
		want := []model.Item{{ID: 1, Text: "A", Completed: true}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("List() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		ctx := context.Background()
		s := o.Open(t)
		mustUpsert(t, s, model.Item{ID: 1, Text: "a"})
		mustUpsert(t, s, model.Item{ID: 2, Text: "b"})

		for i := 0; i < 2; i++ {
			if err := s.Delete(ctx, 1); err != nil {
				t.Fatalf("Delete() #%d failed: %v", i+1, err)
			}
		}
		if err := s.Delete(ctx, 99); err != nil {
			t.Fatalf("Delete(absent) failed: %v", err)
		}

		got, _ := s.List(ctx)
		want := []model.Item{{ID: 2, Text: "b"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("List() mismatch (-want +got):\n%s", diff)
		}
	})

	if o.Reopen == nil {
		return
	}

	t.Run("PersistsAcrossReopen", func(t *testing.T) {
		s := o.Open(t)
		mustUpsert(t, s, model.Item{ID: 256, Text: "kept", OwnerID: 1})
		mustUpsert(t, s, model.Item{ID: 3, Text: "also kept", Completed: true})

		s2 := o.Reopen(t, s)
		got, err := s2.List(context.Background())
		if err != nil {
			t.Fatalf("List() after reopen failed: %v", err)
		}
		want := []model.Item{
			{ID: 256, Text: "kept", OwnerID: 1},
			{ID: 3, Text: "also kept", Completed: true},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("List() after reopen mismatch (-want +got):\n%s", diff)
		}
	})
}

func mustUpsert(t *testing.T, s store.Store, it model.Item) {
	t.Helper()
	if err := s.Upsert(context.Background(), it); err != nil {
		t.Fatalf("Upsert(%d) failed: %v", it.ID, err)
	}
}
