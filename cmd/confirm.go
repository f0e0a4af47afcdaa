package cmd

import (
	"errors"

	"github.com/charmbracelet/huh"
)

// errDeclined is returned when the user answers no.
var errDeclined = errors.New("aborted: confirmation declined")

// confirm is swapped out in tests.
var confirm = askConfirm

// requireConfirmation returns errDeclined unless the user answers yes.
func requireConfirmation(title, description string) error {
	ok, err := confirm(title, description)
	if err != nil {
		return err
	}
	if !ok {
		return errDeclined
	}
	return nil
}

// askConfirm asks a yes/no question on the terminal. Aborting the prompt counts as no.
func askConfirm(title, description string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
