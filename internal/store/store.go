// Package store defines the Local Store: a persistent collection of todo
// items keyed by id. Backends live in subpackages (sqlitestore, jsonstore);
// Memory is used when no backend could be opened.
package store

import (
	"context"
	"errors"

	"github.com/idilsaglam/todosync/internal/model"
)

// Errors returned by Local Store backends. Backends wrap them, so check with
// errors.Is.
var (
	// ErrStoreUnavailable is returned when the store could not be opened or read.
	ErrStoreUnavailable = errors.New("local store unavailable")

	// ErrStoreWriteFailed is returned when an upsert or delete did not persist.
	ErrStoreWriteFailed = errors.New("local store write failed")
)

// Store is the Local Store contract.
//
// Each call is atomic for the single record it touches; nothing spans
// records. Implementations are not required to be safe for concurrent use.
type Store interface {
	// List returns every item in first-insertion order.
	List(ctx context.Context) ([]model.Item, error)

	// Upsert inserts the item, or overwrites all fields of the item with the
	// same id.
	Upsert(ctx context.Context, item model.Item) error

	// Replace overwrites the item with the same id. It is a no-op if no such
	// item exists.
	Replace(ctx context.Context, item model.Item) error

	// Delete removes the item with id. It is a no-op if no such item exists.
	Delete(ctx context.Context, id int) error

	Close() error
}
