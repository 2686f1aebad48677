package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/todosync/internal/config"
	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store/sqlitestore"
	"github.com/idilsaglam/todosync/internal/syncer"
	"github.com/idilsaglam/todosync/internal/tui"
	"github.com/idilsaglam/todosync/internal/ui"
)

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "Todos kept in sync between this machine and the todo API",
		Long: `todo keeps a local cache of your todos and mirrors every change to the
todo API. Changes made while the API is unreachable are kept locally.

Run without a subcommand to open the interactive list.`,
		Example: `  todo add "Buy milk"
  todo ls --group
  todo done 2
  todo rm 3`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &usageError{err: fmt.Errorf("unknown subcommand: %s", args[0]), hint: "run `todo --help` for the list of commands"}
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup(cmd) },
		RunE:              a.runUI,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return &usageError{err: err} })

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ~/.todosync/config.toml)")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.String("api", "", "todo API base URL")
	pf.String("backend", "", "local cache backend: sqlite or json")
	pf.String("store", "", "local cache path")
	pf.String("theme", "", "output theme: classic, neon or mono")
	for flag, key := range map[string]string{
		"api":     "api.base_url",
		"backend": "store.backend",
		"store":   "store.path",
		"theme":   "ui.theme",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		a.uiCmd(),
		a.lsCmd(),
		a.addCmd(),
		a.doneCmd(),
		a.editCmd(),
		a.rmCmd(),
		a.statusCmd(),
		a.configCmd(),
	)
	return root
}

// exactArgs is cobra.ExactArgs reported as a usage error.
func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: %s", usage)
		}
		return nil
	}
}

func (a *app) runUI(cmd *cobra.Command, _ []string) error {
	return a.withSession(cmd.Context(), func(ctx context.Context, s *syncer.Synchronizer) error {
		return tui.Run(ctx, s, tui.Options{})
	})
}

func (a *app) uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive list",
		Args:  exactArgs(0, "todo ui"),
		RunE:  a.runUI,
	}
}

func (a *app) lsCmd() *cobra.Command {
	var group bool
	var search string
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List todos",
		Args:  exactArgs(0, "todo ls [--group] [--search text]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(_ context.Context, s *syncer.Synchronizer) error {
				items := s.Items()
				t := ui.Current()
				d, p := model.Stats(items)

				lines := []string{
					ui.Header(items),
					ui.C(t.Muted, ui.ProgressBar(d, d+p, 28)),
					"",
				}
				lines = append(lines, ui.ListLines(items, search, group)...)
				lines = append(lines, "", ui.C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
				ui.Panel(a.stdout, lines)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "group output by pending/done")
	cmd.Flags().StringVar(&search, "search", "", "only show todos containing text (case-insensitive)")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var d model.Draft
	cmd := &cobra.Command{
		Use:   "add [text...]",
		Short: "Add a todo (opens a form when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Text = strings.Join(args, " ")
			if len(args) == 0 {
				if !a.interactive() {
					return usagef("usage: todo add <text...>")
				}
				var err error
				if d, err = a.prompt(cmd.Context(), d); err != nil {
					return err
				}
			}
			if err := d.Validate(); err != nil {
				return err
			}
			return a.withSession(cmd.Context(), func(ctx context.Context, s *syncer.Synchronizer) error {
				res, err := s.Add(ctx, d)
				if err != nil {
					return err
				}
				a.report("added", res)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&d.Completed, "done", false, "mark the new todo completed")
	cmd.Flags().IntVar(&d.OwnerID, "user", 1, "owner user id")
	return cmd
}

// pick resolves a 1-based index from `todo ls` output.
func pick(items []model.Item, arg string) (model.Item, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return model.Item{}, usagef("not a number: %s", arg)
	}
	if n < 1 || n > len(items) {
		return model.Item{}, &usageError{
			err:  fmt.Errorf("index out of range: have %d, got %d", len(items), n),
			hint: "run `todo ls` to see valid indexes",
		}
	}
	return items[n-1], nil
}

// indexCmd builds a command acting on the item at one index.
func (a *app) indexCmd(use, short, verb string, act func(context.Context, *syncer.Synchronizer, model.Item) (syncer.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <index>",
		Short: short,
		Args:  exactArgs(1, "todo "+use+" <index>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, s *syncer.Synchronizer) error {
				it, err := pick(s.Items(), args[0])
				if err != nil {
					return err
				}
				res, err := act(ctx, s, it)
				if err != nil {
					return err
				}
				a.report(verb, res)
				return nil
			})
		},
	}
}

func (a *app) doneCmd() *cobra.Command {
	return a.indexCmd("done", "Toggle done for the todo at a 1-based index", "toggled",
		func(ctx context.Context, s *syncer.Synchronizer, it model.Item) (syncer.Result, error) {
			return s.Toggle(ctx, it)
		})
}

func (a *app) rmCmd() *cobra.Command {
	return a.indexCmd("rm", "Remove the todo at a 1-based index", "removed",
		func(ctx context.Context, s *syncer.Synchronizer, it model.Item) (syncer.Result, error) {
			return s.Delete(ctx, it)
		})
}

func (a *app) editCmd() *cobra.Command {
	var text string
	var user int
	cmd := a.indexCmd("edit", "Change the text or owner of the todo at a 1-based index", "updated",
		func(ctx context.Context, s *syncer.Synchronizer, it model.Item) (syncer.Result, error) {
			if text != "" {
				it.Text = text
			}
			if user != 0 {
				it.OwnerID = user
			}
			return s.Update(ctx, it)
		})
	cmd.Flags().StringVar(&text, "text", "", "new text")
	cmd.Flags().IntVar(&user, "user", 0, "new owner user id")

	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("text") && strings.TrimSpace(text) == "" {
			return model.ErrEmptyText
		}
		if text == "" && user == 0 {
			return usagef("usage: todo edit <index> [--text text] [--user id]")
		}
		text = strings.TrimSpace(text)
		return run(cmd, args)
	}
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local cache and API settings",
		Args:  exactArgs(0, "todo status"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var count int
			if db, ok := st.(*sqlitestore.DB); ok {
				count, err = db.Count(ctx)
			} else {
				var items []model.Item
				items, err = st.List(ctx)
				count = len(items)
			}
			if err != nil {
				return err
			}

			t := ui.Current()
			ui.Panel(a.stdout, []string{
				ui.C(t.Title, "todosync"),
				fmt.Sprintf("%s %s", ui.C(t.Accent, "API:    "), a.cfg.API.BaseURL),
				fmt.Sprintf("%s %s (%s)", ui.C(t.Accent, "Cache:  "), a.cfg.Store.Path, a.cfg.Store.Backend),
				fmt.Sprintf("%s %d", ui.C(t.Accent, "Todos:  "), count),
				fmt.Sprintf("%s %s", ui.C(t.Accent, "Log:    "), a.cfg.Log.File),
			})
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  exactArgs(0, "todo config show"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(a.stdout, "# %s\n", config.Dir())
			return a.cfg.WriteTOML(a.stdout)
		},
	})
	return cmd
}
