package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/patentwatch/internal/storage"
)

func init() {
	rootCmd.AddCommand(clearRecordsCmd)
}

var clearRecordsCmd = &cobra.Command{
	Use:   "clear-records",
	Short: "Delete every stored patent record",
	Long: `Delete every patent record after an interactive confirmation.

The exact phrase ` + "`" + storage.ClearConfirmation + "`" + ` must be typed; anything else
aborts without changing the database. The journal ledger is kept, so use
'pw reset-journal' to extract a journal again.`,
	Args: cobra.NoArgs,
	RunE: runClearRecords,
}

func runClearRecords(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	fmt.Fprintf(os.Stderr, "This permanently deletes every patent record in %s.\n", cfg.DBPath())
	fmt.Fprintf(os.Stderr, "Type %q to continue: ", storage.ClearConfirmation)
	answer, err := readLine(os.Stdin)
	if err != nil {
		exitWithError(ExitError, "reading confirmation: %v", err)
	}

	n, err := db.ClearPatents(cmd.Context(), answer)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfirmed) {
			exitWithError(ExitAborted, "aborted: confirmation phrase did not match, nothing deleted")
		}
		exitWithError(ExitError, "clearing records: %v", err)
	}

	if humanOutput {
		outputHuman("Deleted %d record(s)\n", n)
		return nil
	}
	return outputJSON(StatusResponse{Status: "cleared", Count: n})
}

// readLine reads one line from r without its line ending. End of
// input without a newline still yields what was typed.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
