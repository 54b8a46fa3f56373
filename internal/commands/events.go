// ABOUTME: Events command implementation for viewing profile file operation history
// ABOUTME: Displays tracked file changes with filtering, formatting and summary options
package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/davidsonoda/clenv/internal/config"
	"github.com/davidsonoda/clenv/internal/events"
	"github.com/davidsonoda/clenv/internal/ui"
	"github.com/spf13/cobra"
)

var (
	eventsFile      string
	eventsOperation string
	eventsProfile   string
	eventsSince     string
	eventsLimit     int
	eventsSummary   bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "View profile file operation history",
	Long: `Display tracked profile file operations with optional filtering.

Every checkout, create, rename, delete and reinit is recorded in
~/.clenv/events/operations.log. Set "disableEvents" in ~/.clenv/config.json
to stop recording.`,
	Example: `  clenv events                          # Show recent events
  clenv events --limit 50               # Show last 50 events
  clenv events --profile dev
  clenv events --operation checkout
  clenv events --since 7d --summary`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVar(&eventsFile, "file", "", "Filter by file path")
	eventsCmd.Flags().StringVar(&eventsOperation, "operation", "", "Filter by operation name")
	eventsCmd.Flags().StringVar(&eventsProfile, "profile", "", "Filter by profile name")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "Show events since duration (e.g., 24h, 7d)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Maximum number of events to show")
	eventsCmd.Flags().BoolVar(&eventsSummary, "summary", false, "Show totals instead of individual events")
}

func runEvents(cmd *cobra.Command, args []string) error {
	logPath := config.EventsLogPath(homeDir)

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		ui.PrintInfo("No events recorded yet.")
		ui.PrintInfo("Profile file operations will be tracked automatically.")
		return nil
	}

	writer, err := events.NewJSONLWriter(logPath)
	if err != nil {
		return fmt.Errorf("failed to open events log: %w", err)
	}

	var sinceTime time.Time
	if eventsSince != "" {
		duration, err := parseDuration(eventsSince)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = time.Now().Add(-duration)
	}

	filters := events.EventFilters{
		File:      eventsFile,
		Operation: eventsOperation,
		Profile:   eventsProfile,
		Since:     sinceTime,
		Limit:     eventsLimit,
	}
	if eventsSummary {
		filters.Limit = 0
	}

	eventList, err := writer.Query(filters)
	if err != nil {
		return fmt.Errorf("failed to query events: %w", err)
	}

	if len(eventList) == 0 {
		ui.PrintInfo("No events found matching the filters.")
		return nil
	}

	out := cmd.OutOrStdout()

	if eventsSummary {
		fmt.Fprintln(out, ui.RenderSection("Summary", -1))
		fmt.Fprint(out, events.Summarize(eventList).FormatAsText())
		return nil
	}

	ui.PrintSuccess(fmt.Sprintf("Found %d event(s):", len(eventList)))
	fmt.Fprintln(out)

	for _, event := range eventList {
		fmt.Fprint(out, formatEvent(event))
		fmt.Fprintln(out)
	}

	return nil
}

func formatEvent(event *events.FileOperation) string {
	var b strings.Builder

	statusIcon := ui.SymbolSuccess
	if event.Error != "" {
		statusIcon = ui.SymbolError
	}

	header := fmt.Sprintf("%s  %s  %s",
		statusIcon,
		event.Timestamp.Format("2006-01-02 15:04:05"),
		strings.ToUpper(event.Operation),
	)
	if event.Profile != "" {
		header += fmt.Sprintf(" (%s)", event.Profile)
	}
	b.WriteString(ui.Info(header) + "\n")

	b.WriteString(ui.Indent(ui.RenderDetail("File", event.File), 1) + "\n")
	if event.Target != "" {
		b.WriteString(ui.Indent(ui.RenderDetail("Moved to", event.Target), 1) + "\n")
	}

	changeIcon := ui.SymbolArrow
	switch event.ChangeType {
	case events.ChangeTypeCreate:
		changeIcon = "+"
	case events.ChangeTypeUpdate:
		changeIcon = "~"
	case events.ChangeTypeDelete:
		changeIcon = "-"
	}
	b.WriteString(ui.Indent(ui.RenderDetail("Change", changeIcon+" "+event.ChangeType), 1) + "\n")

	if event.Before != nil && event.After != nil && event.ChangeType == events.ChangeTypeUpdate {
		sizeDiff := event.After.Size - event.Before.Size
		sizeDiffStr := fmt.Sprintf("%+d bytes", sizeDiff)
		if sizeDiff == 0 {
			sizeDiffStr = "no size change"
		}
		b.WriteString(ui.Indent(ui.RenderDetail("Size", sizeDiffStr), 1) + "\n")
	}

	if event.Error != "" {
		b.WriteString(ui.Indent(ui.Error("Error: "+event.Error), 1) + "\n")
	}

	return b.String()
}

// parseDuration parses duration strings like "24h", "7d", "30m"
func parseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days := strings.TrimSuffix(s, "d")
		var d int
		if _, err := fmt.Sscanf(days, "%d", &d); err != nil {
			return 0, err
		}
		return time.Duration(d) * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}
