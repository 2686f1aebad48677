// Package cli is the todo command tree. With no subcommand it opens the
// interactive list; the subcommands run one intent each and exit.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/idilsaglam/todosync/internal/config"
	"github.com/idilsaglam/todosync/internal/logging"
	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/remote"
	"github.com/idilsaglam/todosync/internal/store"
	"github.com/idilsaglam/todosync/internal/store/jsonstore"
	"github.com/idilsaglam/todosync/internal/store/sqlitestore"
	"github.com/idilsaglam/todosync/internal/syncer"
	"github.com/idilsaglam/todosync/internal/ui"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError is a mistake on the command line rather than a failure.
type usageError struct {
	err  error
	hint string
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// app carries what every command shares. It is built once per process.
type app struct {
	stdout, stderr io.Writer

	v       *viper.Viper
	cfgFile string
	noColor bool

	cfg      *config.Config
	logger   *slog.Logger
	closeLog io.Closer

	// interactive reports whether forms can be shown.
	interactive func() bool
	// prompt asks for a new todo.
	prompt func(ctx context.Context, d model.Draft) (model.Draft, error)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:      stdout,
		stderr:      stderr,
		v:           config.New(),
		logger:      logging.Discard(),
		interactive: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		prompt:      promptDraft,
	}
}

// Execute runs the command line and returns the process exit code
// (0 ok, 1 error, 2 usage).
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return newApp(stdout, stderr).run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if a.closeLog != nil {
		_ = a.closeLog.Close()
	}
	if err == nil {
		return ExitOK
	}

	ui.Fail(a.stderr, err.Error())
	var ue *usageError
	switch {
	case errors.As(err, &ue):
		if ue.hint != "" {
			fmt.Fprintln(a.stderr, ui.C(ui.Current().Muted, "Hint: "+ue.hint))
		}
		return ExitUsage
	case errors.Is(err, model.ErrEmptyText):
		return ExitUsage
	}
	return ExitError
}

// setup loads configuration and the logger; it runs before every command.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	ui.SetTheme(cfg.UI.Theme)
	if a.noColor {
		ui.SetColorForcing(false, true)
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.logger, a.closeLog = logger, closer
	a.logger.Debug("command", "name", cmd.CommandPath(), "backend", cfg.Store.Backend, "store", cfg.Store.Path)
	return nil
}

// openStore opens the configured Local Store.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	switch a.cfg.Store.Backend {
	case config.BackendJSON:
		f, err := jsonstore.Open(a.cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		db, err := sqlitestore.OpenContext(ctx, a.cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}

// withSession starts a Synchronizer, initializes it and hands it to fn. The
// owner loop stops when fn returns.
func (a *app) withSession(ctx context.Context, fn func(context.Context, *syncer.Synchronizer) error) error {
	rc, err := remote.New(a.cfg.API.BaseURL, remote.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	s := syncer.New(rc, syncer.WithLogger(a.logger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		if err := s.Initialize(gctx, a.openStore); err != nil {
			if !errors.Is(err, remote.ErrRemoteUnavailable) && !errors.Is(err, remote.ErrRemoteDecode) {
				return err
			}
			ui.Warn(a.stderr, "could not fetch todos: "+err.Error())
		}
		if st := s.Status(); errors.Is(st.Err, store.ErrStoreUnavailable) {
			ui.Warn(a.stderr, "local cache unavailable, changes will not be kept")
		}
		return fn(gctx, s)
	})
	return g.Wait()
}

// report prints the outcome of one intent.
func (a *app) report(verb string, res syncer.Result) {
	id := res.Item.ID
	switch {
	case res.Remote != nil && res.Local != nil:
		ui.Warn(a.stderr, fmt.Sprintf("#%d %s in memory only: %v", id, verb, res.Err()))
	case res.Remote != nil:
		ui.Warn(a.stderr, fmt.Sprintf("server unreachable, #%d %s locally: %v", id, verb, res.Remote))
	case res.Local != nil:
		ui.Warn(a.stderr, fmt.Sprintf("#%d synced but not cached: %v", id, res.Local))
	}
	ui.OK(a.stdout, fmt.Sprintf("%s #%d", verb, id))
}
