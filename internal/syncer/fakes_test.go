package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/remote"
	"github.com/idilsaglam/todosync/internal/store"
)

// fakeRemote is a scriptable Remote. Errors are returned verbatim.
type fakeRemote struct {
	mu        sync.Mutex
	list      []model.Item
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	created   *model.Item
	gate      chan struct{} // when set, Create waits for it (or ctx)
	listGate  chan struct{} // when set, List closes listing and waits for it
	listing   chan struct{}
	calls     []string
}

var errOffline = fmt.Errorf("%w: dial tcp: network is unreachable", remote.ErrRemoteUnavailable)

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) setFailing(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if fail {
		err = errOffline
	}
	f.createErr, f.updateErr, f.deleteErr = err, err, err
}

func (f *fakeRemote) List(ctx context.Context) ([]model.Item, error) {
	f.record("list")
	if f.listGate != nil {
		close(f.listing)
		select {
		case <-f.listGate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", remote.ErrRemoteUnavailable, ctx.Err())
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Item(nil), f.list...), f.listErr
}

func (f *fakeRemote) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	f.record("create")
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return model.Item{}, fmt.Errorf("%w: %v", remote.ErrRemoteUnavailable, ctx.Err())
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return model.Item{}, f.createErr
	}
	if f.created != nil {
		return *f.created, nil
	}
	return d.WithID(255), nil
}

func (f *fakeRemote) Update(ctx context.Context, it model.Item) (model.Item, error) {
	f.record(fmt.Sprintf("update %d", it.ID))
	f.mu.Lock()
	defer f.mu.Unlock()
	return it, f.updateErr
}

func (f *fakeRemote) Delete(ctx context.Context, id int) (remote.Deleted, error) {
	f.record(fmt.Sprintf("delete %d", id))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return remote.Deleted{}, f.deleteErr
	}
	return remote.Deleted{Item: model.Item{ID: id}, IsDeleted: true}, nil
}

// flakyStore fails writes on demand.
type flakyStore struct {
	store.Store
	failWrites bool
}

func (f *flakyStore) Upsert(ctx context.Context, it model.Item) error {
	if f.failWrites {
		return fmt.Errorf("%w: disk full", store.ErrStoreWriteFailed)
	}
	return f.Store.Upsert(ctx, it)
}

func (f *flakyStore) Delete(ctx context.Context, id int) error {
	if f.failWrites {
		return fmt.Errorf("%w: disk full", store.ErrStoreWriteFailed)
	}
	return f.Store.Delete(ctx, id)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// start runs a Synchronizer until the test ends.
func start(t testing.TB, rc Remote, opts ...Option) (*Synchronizer, context.Context) {
	t.Helper()
	s := New(rc, append([]Option{WithLogger(quietLogger())}, opts...)...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s, ctx
}

func openStore(st store.Store) Opener {
	return func(context.Context) (store.Store, error) { return st, nil }
}

func ids(items []model.Item) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
