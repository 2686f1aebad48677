package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store"
)

// JSON-backed storage. Single file, human-readable, portable.
// The whole file is rewritten on every change (temp file + rename), so a
// crash leaves either the old or the new list, never half of one.

// DefaultFileName is used when the configured path is a directory.
const DefaultFileName = "todos.json"

// File is a Local Store kept in one JSON array.
type File struct {
	path  string
	items []model.Item
}

var _ store.Store = (*File)(nil)

// Open reads path (a missing file is an empty list).
func Open(path string) (*File, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir: %v", store.ErrStoreUnavailable, err)
	}

	f := &File{path: path}
	items, err := f.load()
	if err != nil {
		return nil, err
	}
	f.items = items
	return f, nil
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

func (f *File) load() ([]model.Item, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("%w: read file: %v", store.ErrStoreUnavailable, err)
	}
	var items []model.Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("%w: json unmarshal: %v", store.ErrStoreUnavailable, err)
	}
	// A hand-edited file may repeat an id; keep one row per key.
	return model.Dedupe(items), nil
}

func (f *File) save(items []model.Item) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: json marshal: %v", store.ErrStoreWriteFailed, err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("%w: write file: %v", store.ErrStoreWriteFailed, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: rename: %v", store.ErrStoreWriteFailed, err)
	}
	f.items = items
	return nil
}

func (f *File) List(ctx context.Context) ([]model.Item, error) {
	out := make([]model.Item, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *File) Upsert(ctx context.Context, item model.Item) error {
	next := make([]model.Item, len(f.items), len(f.items)+1)
	copy(next, f.items)
	if i := model.IndexOf(next, item.ID); i >= 0 {
		next[i] = item
	} else {
		next = append(next, item)
	}
	return f.save(next)
}

func (f *File) Replace(ctx context.Context, item model.Item) error {
	i := model.IndexOf(f.items, item.ID)
	if i < 0 {
		return nil
	}
	next := make([]model.Item, len(f.items))
	copy(next, f.items)
	next[i] = item
	return f.save(next)
}

func (f *File) Delete(ctx context.Context, id int) error {
	i := model.IndexOf(f.items, id)
	if i < 0 {
		return nil
	}
	next := make([]model.Item, 0, len(f.items)-1)
	next = append(next, f.items[:i]...)
	next = append(next, f.items[i+1:]...)
	return f.save(next)
}

// Close is a no-op; every write is already on disk.
func (f *File) Close() error { return nil }
