// ABOUTME: Shared markdown rendering using glamour
// ABOUTME: Renders profile files as highlighted code blocks for config show
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/term"
)

// RenderMarkdown renders markdown content for terminal display.
// When raw is true, returns content unchanged (for piping).
// Falls back to raw content on rendering errors.
func RenderMarkdown(content string, raw bool) string {
	if raw {
		return content
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
	)
	if err != nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}

	return rendered
}

// RenderConfig renders a configuration file titled with its name. Raw
// returns the content untouched.
func RenderConfig(title, content string, raw bool) string {
	if raw {
		return content
	}

	var b strings.Builder
	b.WriteString("## " + title + "\n\n")
	// HOCON has no highlighter of its own; its syntax is close enough to JSON
	b.WriteString("```json\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	return RenderMarkdown(b.String(), false)
}

func terminalWidth() int {
	width, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
