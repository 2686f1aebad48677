package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/remote"
	"github.com/idilsaglam/todosync/internal/store"
)

// BaseID is where locally generated ids start.
const BaseID = 256

var (
	// ErrStopped is returned by operations submitted after Run has returned.
	ErrStopped = errors.New("synchronizer stopped")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("synchronizer already running")
)

// Remote is the part of the API client the Synchronizer needs.
type Remote interface {
	List(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, d model.Draft) (model.Item, error)
	Update(ctx context.Context, it model.Item) (model.Item, error)
	Delete(ctx context.Context, id int) (remote.Deleted, error)
}

// Opener opens the Local Store. It runs on the owner loop.
type Opener func(ctx context.Context) (store.Store, error)

// Result reports what happened on each side of a mutation. A non-nil Remote
// or Local error means that side was skipped or failed; the other side was
// still applied.
type Result struct {
	Item   model.Item
	Remote error
	Local  error
}

// Err joins both sides' failures.
func (r Result) Err() error { return errors.Join(r.Remote, r.Local) }

// Status is the most recent degraded condition, for display.
type Status struct {
	Op  string
	Err error
	At  time.Time
}

// Synchronizer owns the in-memory list. See the package documentation for
// the ownership model.
type Synchronizer struct {
	remote Remote
	logger *slog.Logger
	baseID int

	running atomic.Bool
	inbox   chan func()
	started chan struct{}
	stopped chan struct{}
	owner   context.Context // set before started is closed

	// Loop-owned.
	store store.Store
	items []model.Item

	mu       sync.Mutex
	snapshot []model.Item
	subs     map[int]chan []model.Item
	nextSub  int
	status   Status
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger (slog.Default if nil or unset).
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBaseID changes the first locally generated id.
func WithBaseID(id int) Option {
	return func(s *Synchronizer) { s.baseID = id }
}

// New creates a Synchronizer. Until Initialize runs, it works against an
// in-memory store.
func New(rc Remote, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		remote:   rc,
		logger:   slog.Default(),
		baseID:   BaseID,
		inbox:    make(chan func()),
		started:  make(chan struct{}),
		stopped:  make(chan struct{}),
		store:    store.NewMemory(),
		items:    []model.Item{},
		snapshot: []model.Item{},
		subs:     make(map[int]chan []model.Item),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run is the owner loop. It returns nil when ctx is cancelled, after closing
// the store and every subscription.
func (s *Synchronizer) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	s.owner = ctx
	close(s.started)

	defer func() {
		close(s.stopped)
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close local store", "err", err)
		}
		s.closeSubs()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.inbox:
			fn()
		}
	}
}

// onLoop runs fn on the owner loop and waits for it. Once the loop has
// started, the caller's context no longer matters: a change whose remote half
// already happened is always mirrored locally unless the loop is gone.
func (s *Synchronizer) onLoop(ctx context.Context, fn func()) error {
	select {
	case <-s.started:
	case <-ctx.Done():
		return ctx.Err()
	}

	var skipped bool
	done := make(chan struct{})
	task := func() {
		defer close(done)
		// The loop may pick a task in the same instant the owner is torn down.
		if s.owner.Err() != nil {
			skipped = true
			return
		}
		fn()
	}

	select {
	case s.inbox <- task:
	case <-s.stopped:
		return ErrStopped
	}
	<-done
	if skipped {
		return ErrStopped
	}
	return nil
}

// remoteCtx derives the context for one remote call: cancelled by the
// caller or by the owner loop going away, whichever comes first.
func (s *Synchronizer) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc, error) {
	select {
	case <-s.started:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	select {
	case <-s.stopped:
		return nil, nil, ErrStopped
	default:
	}

	rctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.owner, cancel)
	return rctx, func() { stop(); cancel() }, nil
}

// Initialize opens the Local Store and loads it into the list. If the store
// can't be opened or read, the session continues on an in-memory store. If
// the list is still empty, every todo is fetched from the API once; a failed
// fetch is logged and returned, leaving the list empty.
func (s *Synchronizer) Initialize(ctx context.Context, open Opener) error {
	var empty bool
	err := s.onLoop(ctx, func() {
		st, err := open(s.owner)
		if err != nil {
			s.degrade("initialize", fmt.Errorf("open: %w", err))
			st = store.NewMemory()
		}
		items, err := st.List(s.owner)
		if err != nil {
			s.degrade("initialize", fmt.Errorf("read: %w", err))
			_ = st.Close()
			st, items = store.NewMemory(), nil
		}

		if err := s.store.Close(); err != nil {
			s.logger.Warn("close previous local store", "err", err)
		}
		s.store = st
		s.setItems(model.Dedupe(items))
		empty = len(s.items) == 0
		s.logger.Info("loaded local todos", "count", len(s.items))
	})
	if err != nil || !empty {
		return err
	}
	return s.fetchAll(ctx)
}

// fetchAll bootstraps an empty list from the API. Not a refresh: it is only
// called from Initialize.
func (s *Synchronizer) fetchAll(ctx context.Context) error {
	rctx, cancel, err := s.remoteCtx(ctx)
	if err != nil {
		return err
	}
	todos, rerr := s.remote.List(rctx)
	cancel()
	if rerr != nil {
		s.note("fetch", Result{Remote: rerr})
		s.logger.Warn("fetch todos failed", "err", rerr)
		return fmt.Errorf("fetch todos: %w", rerr)
	}

	return s.onLoop(ctx, func() {
		todos = model.Dedupe(todos)
		var failed int
		var lastErr error
		for _, it := range todos {
			if err := s.store.Upsert(s.owner, it); err != nil {
				s.logger.Warn("cache fetched todo failed", "id", it.ID, "err", err)
				failed++
				lastErr = err
			}
		}
		if lastErr != nil {
			s.note("fetch", Result{Local: lastErr})
		}
		// Intents applied while List was in flight are already in the
		// store; they keep their place ahead of the fetched todos, which is
		// also the order the store reloads them in.
		fetched := make(map[int]bool, len(todos))
		for _, it := range todos {
			fetched[it.ID] = true
		}
		var kept []model.Item
		for _, it := range s.items {
			if !fetched[it.ID] {
				kept = append(kept, it)
			}
		}
		s.setItems(append(kept, todos...))
		s.logger.Info("fetched todos", "count", len(todos), "kept", len(kept), "cache_failed", failed)
	})
}

// Add creates a todo. The server's text, completion and owner win when the
// API answers; otherwise the draft's are used. The id is always generated
// locally. The item is appended to the list even if the store write fails.
func (s *Synchronizer) Add(ctx context.Context, d model.Draft) (Result, error) {
	if err := d.Validate(); err != nil {
		return Result{}, err
	}

	rctx, cancel, err := s.remoteCtx(ctx)
	if err != nil {
		return Result{}, err
	}
	created, rerr := s.remote.Create(rctx, d)
	cancel()

	var res Result
	err = s.onLoop(ctx, func() {
		content := d
		if rerr != nil {
			s.logger.Warn("create todo in API failed, using local copy", "err", rerr)
		} else {
			content = merge(d, created)
		}

		it := content.WithID(s.freeID())
		res = Result{Item: it, Remote: rerr}
		if err := s.store.Upsert(s.owner, it); err != nil {
			res.Local = err
			s.logger.Warn("save new todo locally failed", "id", it.ID, "err", err)
		}
		s.items = append(s.items, it)
		s.publish()
		s.note("add", res)
		s.logger.Info("todo added", "id", it.ID)
	})
	return res, err
}

// Update sends the item to the API, then writes it to the store and
// replaces it in the list. The API outcome is only logged. An id that isn't
// in the list leaves the list alone and is a no-op in the store.
func (s *Synchronizer) Update(ctx context.Context, it model.Item) (Result, error) {
	rctx, cancel, err := s.remoteCtx(ctx)
	if err != nil {
		return Result{}, err
	}
	_, rerr := s.remote.Update(rctx, it)
	cancel()
	if rerr != nil {
		s.logger.Warn("update todo in API failed", "id", it.ID, "err", rerr)
	}

	var res Result
	err = s.onLoop(ctx, func() {
		res = Result{Item: it, Remote: rerr}
		i := model.IndexOf(s.items, it.ID)

		write := s.store.Replace
		if i >= 0 {
			// Upsert also heals a row whose earlier write failed.
			write = s.store.Upsert
		}
		if err := write(s.owner, it); err != nil {
			res.Local = err
			s.logger.Warn("update todo locally failed", "id", it.ID, "err", err)
		}

		if i >= 0 {
			s.items[i] = it
			s.publish()
			s.logger.Info("todo updated", "id", it.ID)
		} else {
			s.logger.Warn("update of unknown todo", "id", it.ID)
		}
		s.note("update", res)
	})
	return res, err
}

// Toggle flips the completion flag and updates.
func (s *Synchronizer) Toggle(ctx context.Context, it model.Item) (Result, error) {
	return s.Update(ctx, it.Toggled())
}

// Delete removes the todo from the API, then from the store and the list
// regardless of what the API said. Deleting an unknown id is a no-op.
func (s *Synchronizer) Delete(ctx context.Context, it model.Item) (Result, error) {
	rctx, cancel, err := s.remoteCtx(ctx)
	if err != nil {
		return Result{}, err
	}
	_, rerr := s.remote.Delete(rctx, it.ID)
	cancel()
	if rerr != nil {
		s.logger.Warn("delete todo in API failed", "id", it.ID, "err", rerr)
	}

	var res Result
	err = s.onLoop(ctx, func() {
		res = Result{Item: it, Remote: rerr}
		if err := s.store.Delete(s.owner, it.ID); err != nil {
			res.Local = err
			s.logger.Warn("delete todo locally failed", "id", it.ID, "err", err)
		}
		if i := model.IndexOf(s.items, it.ID); i >= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.publish()
			s.logger.Info("todo deleted", "id", it.ID)
		}
		s.note("delete", res)
	})
	return res, err
}

// freeID probes upward from baseID for an id not in the current list.
func (s *Synchronizer) freeID() int {
	used := make(map[int]struct{}, len(s.items))
	for _, it := range s.items {
		used[it.ID] = struct{}{}
	}
	id := s.baseID
	for {
		if _, ok := used[id]; !ok {
			return id
		}
		id++
	}
}

func (s *Synchronizer) setItems(items []model.Item) {
	s.items = append([]model.Item{}, items...)
	s.publish()
}

func (s *Synchronizer) degrade(op string, err error) {
	s.logger.Warn("local store unavailable, continuing without persistence", "op", op, "err", err)
	s.note(op, Result{Local: err})
}

func (s *Synchronizer) note(op string, res Result) {
	err := res.Err()
	if err == nil {
		return
	}
	s.mu.Lock()
	s.status = Status{Op: op, Err: err, At: time.Now()}
	s.mu.Unlock()
}

// Status returns the latest degraded condition (zero if none so far).
func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// merge lays the server's answer over the draft; empty server fields keep
// the draft's value.
func merge(d model.Draft, server model.Item) model.Draft {
	out := d
	if server.Text != "" {
		out.Text = server.Text
	}
	if server.OwnerID != 0 {
		out.OwnerID = server.OwnerID
	}
	out.Completed = server.Completed
	return out
}
