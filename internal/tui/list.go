package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/ui"
)

// listItem adapts model.Item to bubbles/list.Item.
type listItem struct{ model.Item }

func (i listItem) Title() string       { return i.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// itemDelegate renders one line per item.
type itemDelegate struct{ st styles }

func (d itemDelegate) Height() int                         { return 1 }
func (d itemDelegate) Spacing() int                        { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	st := d.st
	box := st.muted.Render(st.unchecked)
	text := ui.Truncate(it.Text, 80)
	if it.Completed {
		box = st.success.Render(st.checked)
		text = st.done.Render(text)
	}
	owner := st.muted.Render(fmt.Sprintf("#%d @%d", it.ID, it.OwnerID))

	prefix := "  "
	if index == m.Index() {
		prefix = st.selected.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s %s", prefix, box, text, owner)
}

func toListItems(items []model.Item) []list.Item {
	out := make([]list.Item, 0, len(items))
	for _, it := range items {
		out = append(out, listItem{it})
	}
	return out
}

func header(st styles, items []model.Item) string {
	d, p := model.Stats(items)
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		st.title.Render("Todos"),
		st.success.Render("✔"), d,
		st.pending.Render("•"), p,
		st.accent.Render("Total"), len(items),
	)
}
