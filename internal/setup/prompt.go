// Package setup holds the interactive terminal prompts.
package setup

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	failure   = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F5F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(subtle).
			Padding(1)

	successStyle = lipgloss.NewStyle().Foreground(special).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(failure).Bold(true)
)

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled by user")

// Header renders a title banner.
func Header(title string) string {
	return headerStyle.Render(strings.ToUpper(title))
}

// Success renders a positive status line.
func Success(msg string) string {
	return successStyle.Render("✓ " + msg)
}

// Failure renders an error status line.
func Failure(msg string) string {
	return errorStyle.Render("✗ " + msg)
}

// Summary renders key/value rows in a bordered box, keeping row order.
func Summary(rows [][2]string) string {
	width := 0
	for _, row := range rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-*s  %s", width+1, row[0]+":", row[1])
	}
	return summaryStyle.Render(b.String())
}

// PromptPrivateKey asks for the signer private key with hidden echo and
// validates it before returning.
func PromptPrivateKey(validate func(string) error) (string, error) {
	var key string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Enter your private key").
				Description("0x followed by 64 hex characters").
				EchoMode(huh.EchoModePassword).
				Value(&key).
				Validate(validate),
		),
	).Run()
	if err != nil {
		return "", errors.Wrap(err, "read private key")
	}
	return key, nil
}

// Confirm writes the summary rows to w and waits for a yes/no answer.
func Confirm(w io.Writer, title string, rows [][2]string) error {
	fmt.Fprintln(w, Summary(rows))

	var confirm bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return ErrCancelled
	}
	return nil
}
