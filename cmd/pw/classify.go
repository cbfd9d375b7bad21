package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/patentwatch/internal/classify"
	"github.com/matsen/patentwatch/internal/patent"
)

func init() {
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify newly extracted applications by software relevance",
	Long: `Classify every record in the newly_extracted state from its
classification codes.

A code is software-indicating when it starts with one of the configured
prefixes (default G06, H04L, G16H, G05B). Records with only such codes are
Software, with a mix are Hybrid, with none are Non-Software, and records
without codes are Unknown.`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)
	db := mustOpenDatabase(cfg)
	defer db.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	sum, err := runClassifyStage(ctx, cfg, db, log)
	if err != nil {
		exitWithError(ExitError, "classification failed: %v", err)
	}

	if humanOutput {
		printClassifyHuman(sum)
		return nil
	}
	return outputJSON(sum)
}

func printClassifyHuman(sum classify.Summary) {
	outputHuman("Classification: %d processed, %d classified, %d failed\n", sum.Processed, sum.Classified, sum.Failed)
	for _, c := range patent.Categories {
		if n := sum.Categories[c]; n > 0 {
			outputHuman("  %-13s %d\n", c, n)
		}
	}
}
