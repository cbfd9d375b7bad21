package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract application entries from downloaded journals",
	Long: `Read every page of each journal in the downloaded state and store the
application entries found on them.

A journal ends as extracted if at least one part could be opened and as
error_extracting otherwise. Use 'pw reset-journal' to retry one.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)
	db := mustOpenDatabase(cfg)
	defer db.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	sum, err := runExtractStage(ctx, db, log)
	if err != nil {
		exitWithError(ExitError, "extraction failed: %v", err)
	}

	if humanOutput {
		outputHuman("Extraction: %d journal(s), %d extracted, %d failed\n", sum.Journals, sum.Extracted, sum.Failed)
		outputHuman("  pages read: %d (%d unreadable)\n", sum.Pages, sum.PageErrors)
		outputHuman("  records stored: %d (%d failed)\n", sum.Records, sum.RecordErrors)
		return nil
	}
	return outputJSON(sum)
}
