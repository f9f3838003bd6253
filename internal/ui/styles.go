// Package ui renders CLI output.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/mschirtzinger/tasktree/internal/store/schema"
)

func init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// ShouldUseColor reports whether stdout is a terminal and NO_COLOR is unset.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// DisableColor forces plain output.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"})
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#E65100", Dark: "#FFB74D"})
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"})
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#64B5F6"})
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9E9E9E"})
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

// RenderPass renders s as a success marker.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders s as a warning.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail renders s as an error.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderAccent highlights identifiers and counts.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderMuted renders secondary text.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderBold renders s in bold.
func RenderBold(s string) string { return boldStyle.Render(s) }

// RenderStatus renders a status with its conventional color.
func RenderStatus(status schema.Status) string {
	switch status {
	case schema.StatusDone:
		return passStyle.Render(string(status))
	case schema.StatusInProgress:
		return accentStyle.Render(string(status))
	case schema.StatusCancelled:
		return mutedStyle.Render(string(status))
	default:
		return string(status)
	}
}

// StatusIcon returns a one-character marker for status.
func StatusIcon(status schema.Status) string {
	switch status {
	case schema.StatusDone:
		return passStyle.Render("✓")
	case schema.StatusInProgress:
		return accentStyle.Render("◐")
	case schema.StatusCancelled:
		return mutedStyle.Render("✗")
	default:
		return "○"
	}
}
