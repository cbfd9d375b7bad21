package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matsen/patentwatch/internal/journal"
	"github.com/matsen/patentwatch/internal/patent"
)

// Constants for output formatting.
const (
	DefaultListLimit = 50 // Default limit for list command

	ListTitleMaxLen   = 60 // Used in list command output
	DetailTitleMaxLen = 70 // Used in search command output
)

// stdout receives command results; tests swap it.
var stdout io.Writer = os.Stdout

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Fprintf(stdout, format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status    string `json:"status"`
	JournalID string `json:"journal_id,omitempty"`
	Path      string `json:"path,omitempty"`
	Count     int64  `json:"count,omitempty"`
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// categoryLabel shows unclassified records as "-".
func categoryLabel(c patent.Category) string {
	if c == "" {
		return "-"
	}
	return string(c)
}

// printRecordsHuman prints one line per record followed by a count.
func printRecordsHuman(records []patent.Record) {
	for _, r := range records {
		outputHuman("%-16s %-13s %-16s %s\n",
			r.ApplicationNo, categoryLabel(r.Category), r.Status, truncateString(r.Title, ListTitleMaxLen))
	}
	outputHuman("\n%d record(s)\n", len(records))
}

// printJournalsHuman prints one line per journal with the parts it holds.
func printJournalsHuman(arts []journal.Artifact) {
	for _, a := range arts {
		var parts []string
		if a.Part1Path != "" {
			parts = append(parts, journal.Part1Name)
		}
		if a.Part2Path != "" {
			parts = append(parts, journal.Part2Name)
		}
		outputHuman("%-10s %-17s %s\n", a.JournalID, a.Status, strings.Join(parts, ", "))
	}
	outputHuman("\n%d journal(s)\n", len(arts))
}
