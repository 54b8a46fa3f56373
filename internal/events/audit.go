// ABOUTME: Summary statistics over recorded file operations
// ABOUTME: Backs the events --summary view
package events

import (
	"fmt"
	"sort"
	"strings"
)

// Summary provides aggregate statistics about a list of events
type Summary struct {
	TotalEvents   int
	FilesAffected []string       // unique file paths, sorted
	Operations    map[string]int // operation name -> count
	Profiles      map[string]int // profile name -> count
	ChangeTypes   map[string]int // create/update/delete/rename -> count
	Errors        int            // count of failed operations
}

// Summarize computes aggregate statistics from events
func Summarize(events []*FileOperation) Summary {
	summary := Summary{
		TotalEvents: len(events),
		Operations:  make(map[string]int),
		Profiles:    make(map[string]int),
		ChangeTypes: make(map[string]int),
	}

	files := make(map[string]bool)
	for _, event := range events {
		files[event.File] = true
		if event.Target != "" {
			files[event.Target] = true
		}
		summary.Operations[event.Operation]++
		if event.Profile != "" {
			summary.Profiles[event.Profile]++
		}
		summary.ChangeTypes[event.ChangeType]++
		if event.Error != "" {
			summary.Errors++
		}
	}

	for file := range files {
		summary.FilesAffected = append(summary.FilesAffected, file)
	}
	sort.Strings(summary.FilesAffected)

	return summary
}

// FormatAsText renders the summary as indented plain text
func (s Summary) FormatAsText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total events: %d\n", s.TotalEvents)
	fmt.Fprintf(&b, "Files affected: %d\n", len(s.FilesAffected))
	if s.Errors > 0 {
		fmt.Fprintf(&b, "Failed operations: %d\n", s.Errors)
	}

	writeCounts(&b, "Operations", s.Operations)
	writeCounts(&b, "Profiles", s.Profiles)
	writeCounts(&b, "Changes", s.ChangeTypes)

	return b.String()
}

func writeCounts(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "  %-20s %d\n", k, counts[k])
	}
}
