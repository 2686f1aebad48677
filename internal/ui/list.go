package ui

import (
	"fmt"

	"github.com/idilsaglam/todosync/internal/model"
)

const maxTextWidth = 80

// Header is the title line with done, pending and total counts.
func Header(items []model.Item) string {
	d, p := model.Stats(items)
	t := Current()
	return fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		C(t.Title, "Todos"),
		C(t.Success, t.SymDone), d,
		C(t.Pending, t.SymUnchecked), p,
		C(t.Accent, "Total"), len(items),
	)
}

// ListLines renders the items matching search with their 1-based position
// in items, either in order or split into Pending and Done sections.
func ListLines(items []model.Item, search string, group bool) []string {
	match := func(it model.Item) bool { return model.Matches(it, search) }
	if !group {
		return itemLines(items, match)
	}
	t := Current()
	var lines []string
	lines = append(lines, C(t.Accent, "Pending"))
	lines = append(lines, itemLines(items, func(it model.Item) bool { return match(it) && !it.Completed })...)
	lines = append(lines, "")
	lines = append(lines, C(t.Accent, "Done"))
	lines = append(lines, itemLines(items, func(it model.Item) bool { return match(it) && it.Completed })...)
	return lines
}

func itemLines(items []model.Item, keep func(model.Item) bool) []string {
	t := Current()
	var out []string
	for i, it := range items {
		if !keep(it) {
			continue
		}
		box, color := t.BoxUnchecked, t.Muted
		if it.Completed {
			box, color = t.BoxChecked, t.Success
		}
		out = append(out, fmt.Sprintf("%s %s %s %s",
			Dim(fmt.Sprintf("%2d.", i+1)),
			C(color, box),
			Truncate(it.Text, maxTextWidth),
			C(t.Muted, fmt.Sprintf("#%d @%d", it.ID, it.OwnerID)),
		))
	}
	if len(out) == 0 {
		return []string{C(t.Muted, "(none)")}
	}
	return out
}

// Truncate shortens s to n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
