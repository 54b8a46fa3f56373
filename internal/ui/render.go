// ABOUTME: Rendering functions for headers, sections, and profile listings
// ABOUTME: Provides consistent formatting for structured CLI output
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	// HeaderWidth is the fixed width for header boxes
	HeaderWidth = 42

	activeTag = "[active]"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 2).
			Width(HeaderWidth).
			Align(lipgloss.Center)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorInfo)

	labelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// RenderHeader returns a styled header box with the given title
func RenderHeader(title string) string {
	return headerStyle.Render(title)
}

// RenderSection returns a styled section header with optional count
// Pass -1 for count to omit the count display
func RenderSection(title string, count int) string {
	if count >= 0 {
		return sectionStyle.Render(fmt.Sprintf("%s (%d)", title, count))
	}
	return sectionStyle.Render(title)
}

// RenderDetail returns a label: value pair with consistent formatting
func RenderDetail(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}

// RenderProfile returns the listing entry for a profile. The active profile
// is tagged; showPath adds the file location on an indented second line.
func RenderProfile(name, path string, active, showPath bool) string {
	line := Warning(name)
	if active {
		line = Active(name + " " + activeTag)
	}
	if showPath {
		line += "\n" + Indent(Muted(path), 1)
	}
	return line
}

// Indent returns the string with the specified indentation level (2 spaces per level)
func Indent(s string, level int) string {
	return strings.Repeat("  ", level) + s
}
