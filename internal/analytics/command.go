package analytics

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

const (
	CommandName = "tern_analytics"

	defaultLimit    = 20
	defaultMaxWidth = 40
)

// RunCommand implements the tern_analytics builtin. args[0] is the command
// name.
func (analyticsManager *AnalyticsManager) RunCommand(args []string, stdout io.Writer) error {
	if len(args) > 1 {
		switch args[1] {
		case "-c", "--clear":
			return analyticsManager.ResetAnalytics()

		case "-d", "--delete":
			if len(args) < 3 {
				return fmt.Errorf("%s -d requires an entry ID", CommandName)
			}
			id, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry ID: %s", args[2])
			}
			if err := analyticsManager.DeleteEntry(uint(id)); err != nil {
				return fmt.Errorf("failed to delete entry %d: %w", id, err)
			}
			return nil

		case "-h", "--help":
			printAnalyticsHelp(stdout)
			return nil

		case "-n", "--count":
			count, err := analyticsManager.GetTotalCount()
			if err != nil {
				return fmt.Errorf("failed to count entries: %w", err)
			}
			fmt.Fprintf(stdout, "Total recorded commands: %s\n", humanize.Comma(count))
			return nil
		}
	}

	limit := defaultLimit
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count: %s", args[1])
		}
		limit = n
	}

	entries, err := analyticsManager.GetRecentEntries(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No commands recorded.")
		return nil
	}

	// Oldest first, like history.
	printEntriesTable(stdout, lo.Reverse(entries), time.Now())
	return nil
}

func printAnalyticsHelp(stdout io.Writer) {
	help := []string{
		"Usage: " + CommandName + " [option] [n]",
		"Display or manipulate the command execution ledger.",
		"",
		"Options:",
		"  -c, --clear    clear all recorded commands",
		"  -d, --delete   delete a recorded command by ID",
		"  -h, --help     display this help message",
		"  -n, --count    display total number of recorded commands",
		"",
		"If n is given, display only the last n commands.",
	}
	fmt.Fprintln(stdout, strings.Join(help, "\n"))
}

func printEntriesTable(stdout io.Writer, entries []Entry, now time.Time) {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tWHEN\tSTATUS\tDURATION\tCOMMAND")
	fmt.Fprintln(w, "──\t────\t──────\t────────\t───────")

	for _, entry := range entries {
		status := strconv.Itoa(entry.ExitCode)
		if entry.Background {
			status = "&"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			entry.ID,
			humanize.RelTime(entry.CreatedAt, now, "ago", "from now"),
			status,
			time.Duration(entry.DurationMs)*time.Millisecond,
			truncate(entry.Command, defaultMaxWidth),
		)
	}

	w.Flush()
}

// truncate shortens s to maxLen bytes, adding an ellipsis if truncated.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSpace(s)

	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
