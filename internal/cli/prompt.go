package cli

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/alexanderramin/weekgrid/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var errNotInteractive = errors.New("not an interactive terminal")

// IdentityInput is the raw sign-in form.
type IdentityInput struct {
	ID    string
	Email string
	Name  string
}

func (in IdentityInput) complete() bool {
	return strings.TrimSpace(in.ID) != "" && strings.TrimSpace(in.Email) != ""
}

func weekgridHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// confirm asks before a destructive change. --yes skips the question; a
// non-interactive session without --yes refuses.
func confirm(app *App, yes bool, title string) (bool, error) {
	if yes {
		return true, nil
	}
	if app.Confirm != nil {
		return app.Confirm(title)
	}
	if !app.interactive() {
		return false, fmt.Errorf("%w: pass --yes to confirm", errNotInteractive)
	}
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok),
	)).WithTheme(weekgridHuhTheme()).WithShowHelp(false).Run()
	return ok, err
}

// promptIdentity fills in whatever the flags left empty.
func promptIdentity(app *App, in *IdentityInput) error {
	if in.complete() {
		return nil
	}
	if app.PromptIdentity != nil {
		return app.PromptIdentity(in)
	}
	if !app.interactive() {
		return fmt.Errorf("%w: pass --id and --email", errNotInteractive)
	}
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Account ID").Value(&in.ID).Validate(requiredText("account id")),
		huh.NewInput().Title("Email").Value(&in.Email).Validate(validateEmail),
		huh.NewInput().Title("Display name").Placeholder("optional").Value(&in.Name),
	)).WithTheme(weekgridHuhTheme()).WithShowHelp(false).Run()
}

func requiredText(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("enter a valid email")
	}
	return nil
}
