package model

import (
	"errors"
	"fmt"
	"strings"
)

// Item is the domain model for a todo entry.
// JSON names follow the remote API so the same struct is used on the wire,
// in the JSON store and in memory.
type Item struct {
	ID        int    `json:"id"`
	Text      string `json:"todo"`
	Completed bool   `json:"completed"`
	OwnerID   int    `json:"userId"`
}

// Draft is an Item that has not been given an id yet.
type Draft struct {
	Text      string `json:"todo"`
	Completed bool   `json:"completed"`
	OwnerID   int    `json:"userId"`
}

// ErrEmptyText is returned when a draft or item has no visible text.
var ErrEmptyText = errors.New("todo text cannot be empty")

// Validate trims the text and rejects empty entries.
func (d *Draft) Validate() error {
	d.Text = strings.TrimSpace(d.Text)
	if d.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// Draft drops the id.
func (i Item) Draft() Draft {
	return Draft{Text: i.Text, Completed: i.Completed, OwnerID: i.OwnerID}
}

// WithID turns a draft into an item.
func (d Draft) WithID(id int) Item {
	return Item{ID: id, Text: d.Text, Completed: d.Completed, OwnerID: d.OwnerID}
}

// Toggled returns a copy with the completion flag flipped.
func (i Item) Toggled() Item {
	i.Completed = !i.Completed
	return i
}

func (i Item) String() string {
	box := "☐"
	if i.Completed {
		box = "☑"
	}
	return fmt.Sprintf("#%d %s %s (user %d)", i.ID, box, i.Text, i.OwnerID)
}
