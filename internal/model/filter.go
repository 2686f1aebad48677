package model

import "strings"

// Filter keeps the items whose text contains search, ignoring case.
// An empty (or blank) search returns items unchanged.
func Filter(items []Item, search string) []Item {
	search = strings.TrimSpace(search)
	if search == "" {
		return items
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if Matches(it, search) {
			out = append(out, it)
		}
	}
	return out
}

// Matches reports whether it passes Filter for search.
func Matches(it Item, search string) bool {
	search = strings.TrimSpace(search)
	return search == "" || strings.Contains(strings.ToLower(it.Text), strings.ToLower(search))
}

// Stats counts done and pending items.
func Stats(items []Item) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// IndexOf returns the position of the item with id, or -1.
func IndexOf(items []Item, id int) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Dedupe keeps one entry per id: first position, last fields, the same
// outcome as upserting the sequence one by one.
func Dedupe(items []Item) []Item {
	out := make([]Item, 0, len(items))
	pos := make(map[int]int, len(items))
	for _, it := range items {
		if i, ok := pos[it.ID]; ok {
			out[i] = it
			continue
		}
		pos[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}
