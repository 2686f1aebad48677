// Package tui is the interactive list screen. It renders the Synchronizer's
// item stream and turns key presses into intents; it holds no state of its
// own beyond the current search text and input mode.
package tui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/syncer"
	"github.com/idilsaglam/todosync/internal/ui"
)

// Syncer is what the screen needs from the Synchronizer.
type Syncer interface {
	Add(ctx context.Context, d model.Draft) (syncer.Result, error)
	Update(ctx context.Context, it model.Item) (syncer.Result, error)
	Toggle(ctx context.Context, it model.Item) (syncer.Result, error)
	Delete(ctx context.Context, it model.Item) (syncer.Result, error)
	Subscribe() (<-chan []model.Item, func())
	Status() syncer.Status
}

// Options tune the screen.
type Options struct {
	DefaultOwner int // owner id given to items added here
}

type mode int

const (
	browsing mode = iota
	searching
	adding
	editingText
	editingOwner
)

// itemsMsg carries a new snapshot from the subscription.
type itemsMsg []model.Item

// closedMsg means the Synchronizer stopped.
type closedMsg struct{}

// resultMsg is the outcome of one intent.
type resultMsg struct {
	op  string
	res syncer.Result
	err error
}

// Model is the Bubble Tea model for the list screen.
type Model struct {
	ctx     context.Context
	sync    Syncer
	updates <-chan []model.Item
	opt     Options
	st      styles

	items  []model.Item
	search string
	list   list.Model

	mode     mode
	input    textinput.Model
	target   model.Item
	inputErr string

	flash  string
	undo   *model.Item
	width  int
	height int
}

// New subscribes to s and returns the model plus the unsubscribe func.
func New(ctx context.Context, s Syncer, opt Options) (Model, func()) {
	if opt.DefaultOwner == 0 {
		opt.DefaultOwner = 1
	}
	updates, cancel := s.Subscribe()
	st := newStyles(ui.Current(), ui.ColorEnabled())

	l := list.New(nil, itemDelegate{st}, 0, 0)
	l.Title = header(st, nil)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = st.title
	l.Styles.HelpStyle = st.help
	l.Styles.PaginationStyle = st.help
	l.SetStatusBarItemName("item", "items")
	l.KeyMap.Quit.SetEnabled(false)

	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "owner")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{
		ctx:     ctx,
		sync:    s,
		updates: updates,
		opt:     opt,
		st:      st,
		list:    l,
		input:   ti,
	}
	m.resize(termSize())
	return m, cancel
}

// Run shows the screen until the user quits or ctx ends.
func Run(ctx context.Context, s Syncer, opt Options) error {
	m, unsubscribe := New(ctx, s, opt)
	defer unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run screen: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd { return waitForItems(m.updates) }

func waitForItems(ch <-chan []model.Item) tea.Cmd {
	return func() tea.Msg {
		items, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return itemsMsg(items)
	}
}

// dispatch runs an intent off the UI goroutine.
func (m Model) dispatch(op string, fn func(context.Context) (syncer.Result, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		res, err := fn(ctx)
		return resultMsg{op: op, res: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemsMsg:
		m.items = msg
		m.refresh()
		return m, waitForItems(m.updates)
	case closedMsg:
		return m, tea.Quit
	case resultMsg:
		m.flash = m.describe(msg)
		return m, nil
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode != browsing {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel, hasSel := m.selected()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		if m.search != "" {
			m.search = ""
			m.refresh()
			return m, nil
		}
		return m, tea.Quit
	case "/":
		return m.openInput(searching, "Search...", m.search), nil
	case "a":
		return m.openInput(adding, "New todo...", ""), nil
	case "e":
		if hasSel {
			m.target = sel
			return m.openInput(editingText, "Edit todo...", sel.Text), nil
		}
		return m, nil
	case "o":
		if hasSel {
			m.target = sel
			return m.openInput(editingOwner, "User ID", strconv.Itoa(sel.OwnerID)), nil
		}
		return m, nil
	case " ":
		if hasSel {
			return m, m.dispatch("toggle", func(ctx context.Context) (syncer.Result, error) {
				return m.sync.Toggle(ctx, sel)
			})
		}
		return m, nil
	case "d":
		if hasSel {
			m.undo = &sel
			return m, m.dispatch("delete", func(ctx context.Context) (syncer.Result, error) {
				return m.sync.Delete(ctx, sel)
			})
		}
		return m, nil
	case "u":
		if m.undo == nil {
			return m, nil
		}
		d := m.undo.Draft()
		m.undo = nil
		return m, m.dispatch("undo", func(ctx context.Context) (syncer.Result, error) {
			return m.sync.Add(ctx, d)
		})
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) openInput(md mode, placeholder, value string) Model {
	m.mode = md
	m.inputErr = ""
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return m
}

func (m Model) closeInput() Model {
	m.mode = browsing
	m.inputErr = ""
	m.input.SetValue("")
	m.input.Blur()
	return m
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.mode == searching {
			m.search = ""
			m.refresh()
		}
		return m.closeInput(), nil
	case "enter":
		return m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == searching {
		m.search = m.input.Value()
		m.refresh()
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	switch m.mode {
	case searching:
		return m.closeInput(), nil
	case adding:
		if value == "" {
			m.inputErr = "Todo cannot be empty"
			return m, nil
		}
		d := model.Draft{Text: value, OwnerID: m.opt.DefaultOwner}
		return m.closeInput(), m.dispatch("add", func(ctx context.Context) (syncer.Result, error) {
			return m.sync.Add(ctx, d)
		})
	case editingText:
		if value == "" {
			m.inputErr = "Todo cannot be empty"
			return m, nil
		}
		it := m.target
		it.Text = value
		return m.closeInput(), m.dispatch("edit", func(ctx context.Context) (syncer.Result, error) {
			return m.sync.Update(ctx, it)
		})
	case editingOwner:
		owner, err := strconv.Atoi(value)
		if err != nil || owner < 0 {
			m.inputErr = "User ID must be a number"
			return m, nil
		}
		it := m.target
		it.OwnerID = owner
		return m.closeInput(), m.dispatch("edit", func(ctx context.Context) (syncer.Result, error) {
			return m.sync.Update(ctx, it)
		})
	}
	return m.closeInput(), nil
}

func (m Model) selected() (model.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Item{}, false
	}
	return li.Item, true
}

// refresh rebuilds the visible list from items and the search text.
func (m *Model) refresh() {
	visible := model.Filter(m.items, m.search)
	m.list.Title = header(m.st, m.items)
	m.list.SetItems(toListItems(visible))
	if n := len(visible); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(max(w-4, 10), max(h-7, 3))
}

func (m Model) describe(r resultMsg) string {
	switch {
	case r.err != nil:
		return m.st.err.Render(fmt.Sprintf("✖ %s: %v", r.op, r.err))
	case r.res.Remote != nil && r.res.Local != nil:
		return m.st.err.Render(fmt.Sprintf("✖ %s #%d: not synced, not saved", r.op, r.res.Item.ID))
	case r.res.Remote != nil:
		return m.st.pending.Render(fmt.Sprintf("⚠ %s #%d: saved locally, server unreachable", r.op, r.res.Item.ID))
	case r.res.Local != nil:
		return m.st.pending.Render(fmt.Sprintf("⚠ %s #%d: synced, local save failed", r.op, r.res.Item.ID))
	}
	return m.st.success.Render(fmt.Sprintf("✔ %s #%d", r.op, r.res.Item.ID))
}

func (m Model) statusLine() string {
	if m.flash != "" {
		return m.flash
	}
	if st := m.sync.Status(); !st.At.IsZero() {
		return m.st.pending.Render(fmt.Sprintf("⚠ %s at %s: %v", st.Op, st.At.Format("15:04:05"), st.Err))
	}
	if m.search != "" {
		return m.st.muted.Render(fmt.Sprintf("search: %q (esc to clear)", m.search))
	}
	return ""
}

func (m Model) View() string {
	content := m.list.View()
	if m.mode != browsing {
		title := map[mode]string{
			searching:    "Search",
			adding:       "Add new item",
			editingText:  "Edit item",
			editingOwner: "Change user ID",
		}[m.mode]
		if m.inputErr != "" {
			title += "  " + m.st.err.Render(m.inputErr)
		}
		bar := m.st.frame.Render(title + "\n" + m.input.View())
		content = lipgloss.JoinVertical(lipgloss.Left, content, bar)
	}
	if s := m.statusLine(); s != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, s)
	}
	return m.st.frame.Render(content)
}

func termSize() (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}
