package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find new journal issues and download their parts",
	Long: `Fetch the journal listing and download every issue not yet recorded.

The listing is scanned newest first and the scan stops at the first issue
older than the configured baseline serial. An issue is recorded once at
least one of its two parts downloaded and validated.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)
	db := mustOpenDatabase(cfg)
	defer db.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	sum, err := runDiscoverStage(ctx, cfg, db, log)
	if err != nil {
		exitWithError(ExitError, "discovery failed: %v", err)
	}

	if humanOutput {
		outputHuman("Discovery: %d listed, %d new, %d already known, %d failed\n", sum.Listed, sum.New, sum.Known, sum.Failed)
		outputHuman("  parts downloaded: %d (%d failed)\n", sum.Parts, sum.PartErrors)
		if sum.StoppedAt != "" {
			outputHuman("  stopped at %s (below baseline %s)\n", sum.StoppedAt, cfg.Journal.BaselineSerial)
		}
		return nil
	}
	return outputJSON(sum)
}
