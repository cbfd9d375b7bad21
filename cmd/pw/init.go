package main

import (
	"os"

	"github.com/spf13/cobra"
)

// InitResult is the response for the init command.
type InitResult struct {
	DBPath    string `json:"db_path"`
	RawPDFDir string `json:"raw_pdf_dir"`
	OutputDir string `json:"output_dir"`
}

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directory and database",
	Long: `Create the data directory layout and the SQLite database.

Running init again is harmless; the schema is created only if missing and
older databases are migrated in place.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	for _, dir := range []string{cfg.RawPDFPath(), cfg.OutputPath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			exitWithError(ExitError, "creating %s: %v", dir, err)
		}
	}

	db := mustOpenDatabase(cfg)
	defer db.Close()

	result := InitResult{
		DBPath:    cfg.DBPath(),
		RawPDFDir: cfg.RawPDFPath(),
		OutputDir: cfg.OutputPath(),
	}
	if humanOutput {
		outputHuman("Initialized %s\n", cfg.DataDir)
		outputHuman("  database: %s\n  journals: %s\n  output:   %s\n", result.DBPath, result.RawPDFDir, result.OutputDir)
		return nil
	}
	return outputJSON(result)
}
