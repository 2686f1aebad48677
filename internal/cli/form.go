package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/idilsaglam/todosync/internal/model"
)

// promptDraft shows the add form, starting from d.
func promptDraft(ctx context.Context, d model.Draft) (model.Draft, error) {
	user := strconv.Itoa(d.OwnerID)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Todo").
				Placeholder("Buy milk").
				Value(&d.Text).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("todo cannot be empty")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Completed").
				Value(&d.Completed),
			huh.NewInput().
				Title("User ID").
				Value(&user).
				Validate(func(s string) error {
					if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
						return errors.New("user id must be a number")
					}
					return nil
				}),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return d, usagef("add cancelled")
		}
		return d, err
	}
	d.OwnerID, _ = strconv.Atoi(strings.TrimSpace(user))
	return d, nil
}
