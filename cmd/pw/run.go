package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/patentwatch/internal/classify"
	"github.com/matsen/patentwatch/internal/extract"
	"github.com/matsen/patentwatch/internal/journal"
)

// RunResult is the response for the run command.
type RunResult struct {
	Discover journal.DiscoverSummary `json:"discover"`
	Extract  extract.Summary         `json:"extract"`
	Classify classify.Summary        `json:"classify"`
}

var runSkipDiscover bool

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runSkipDiscover, "skip-discover", false, "Process already downloaded journals without fetching the listing")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run discover, extract and classify in order",
	Long: `Run the full pipeline once: discover new journals, extract their
entries, then classify the new records.

A discovery failure (listing unreachable) stops the run before extraction.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)
	db := mustOpenDatabase(cfg)
	defer db.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	var result RunResult
	var err error
	if !runSkipDiscover {
		if result.Discover, err = runDiscoverStage(ctx, cfg, db, log); err != nil {
			exitWithError(ExitError, "discovery failed: %v", err)
		}
	}
	if result.Extract, err = runExtractStage(ctx, db, log); err != nil {
		exitWithError(ExitError, "extraction failed: %v", err)
	}
	if result.Classify, err = runClassifyStage(ctx, cfg, db, log); err != nil {
		exitWithError(ExitError, "classification failed: %v", err)
	}

	if humanOutput {
		d := result.Discover
		outputHuman("Discovery: %d new, %d already known, %d failed\n", d.New, d.Known, d.Failed)
		e := result.Extract
		outputHuman("Extraction: %d journal(s), %d record(s) stored\n", e.Journals, e.Records)
		printClassifyHuman(result.Classify)
		return nil
	}
	return outputJSON(result)
}
