package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/patentwatch/internal/journal"
	"github.com/matsen/patentwatch/internal/serial"
	"github.com/matsen/patentwatch/internal/storage"
)

func init() {
	rootCmd.AddCommand(resetJournalCmd)
	rootCmd.AddCommand(resetClassificationsCmd)
}

var resetJournalCmd = &cobra.Command{
	Use:   "reset-journal <journal_id>",
	Short: "Mark a journal as downloaded so extract processes it again",
	Long: `Set a journal back to the downloaded state.

The id may be given as week_year or as the printed serial week/year.

Example:
  pw reset-journal 45_2025
  pw reset-journal 45/2025`,
	Args: cobra.ExactArgs(1),
	RunE: runResetJournal,
}

func runResetJournal(cmd *cobra.Command, args []string) error {
	raw := strings.ReplaceAll(strings.TrimSpace(args[0]), "_", "/")
	if _, ok := serial.Parse(raw); !ok {
		exitWithError(ExitError, "invalid journal id %q: expected week_year or week/year", args[0])
	}
	id := serial.JournalID(raw)

	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	if err := db.SetJournalStatus(cmd.Context(), id, journal.StatusDownloaded); err != nil {
		if errors.Is(err, storage.ErrJournalNotFound) {
			exitWithError(ExitDataError, "journal %s not found", id)
		}
		exitWithError(ExitError, "resetting journal: %v", err)
	}

	if humanOutput {
		outputHuman("Journal %s reset to %s\n", id, journal.StatusDownloaded)
		return nil
	}
	return outputJSON(StatusResponse{Status: string(journal.StatusDownloaded), JournalID: id})
}

var resetClassificationsCmd = &cobra.Command{
	Use:   "reset-classifications",
	Short: "Return every classified record to newly_extracted",
	Long: `Clear the category and codes of every classified record so the next
classify run sees it again. Useful after changing software_prefixes.`,
	Args: cobra.NoArgs,
	RunE: runResetClassifications,
}

func runResetClassifications(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	n, err := db.ResetClassified(cmd.Context())
	if err != nil {
		exitWithError(ExitError, "resetting classifications: %v", err)
	}

	if humanOutput {
		outputHuman("Reset %d record(s) to newly_extracted\n", n)
		return nil
	}
	return outputJSON(StatusResponse{Status: "reset", Count: n})
}
