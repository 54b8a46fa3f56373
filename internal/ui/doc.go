// ABOUTME: Package documentation for the ui package
// ABOUTME: Describes the purpose and usage patterns for terminal styling

// Package ui provides consistent terminal styling, prompts and output
// formatting for clenv commands using lipgloss.
//
// Usage:
//   - Use Print* functions for standalone messages: ui.PrintSuccess("Switched to dev")
//   - Use inline helpers for composing output: fmt.Println(ui.Bold("dev"), ui.Muted(path))
//   - Use FormatError for the single error line printed before exiting
//   - Respects NO_COLOR environment variable for accessibility
package ui
