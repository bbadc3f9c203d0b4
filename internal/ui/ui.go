// Package ui holds the terminal styling shared by every command.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	colorEnabled = termenv.EnvColorProfile() != termenv.Ascii
)

func render(st lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return st.Render(s)
}

// RenderPass styles a success marker.
func RenderPass(s string) string { return render(passStyle, s) }

// RenderWarn styles a warning marker.
func RenderWarn(s string) string { return render(warnStyle, s) }

// RenderErr styles an error marker.
func RenderErr(s string) string { return render(errStyle, s) }

// RenderAccent styles emphasized inline text.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderFaint de-emphasizes inline text.
func RenderFaint(s string) string { return render(faintStyle, s) }

// RenderHeading styles a section heading.
func RenderHeading(s string) string { return render(headingStyle, s) }
