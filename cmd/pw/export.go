package main

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/matsen/patentwatch/internal/history"
	"github.com/matsen/patentwatch/internal/patent"
	"github.com/matsen/patentwatch/internal/storage"
)

var (
	exportCategories []string
	exportSoftware   bool
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringSliceVarP(&exportCategories, "category", "c", nil, "Only export these categories (repeatable)")
	exportCmd.Flags().BoolVar(&exportSoftware, "software", false, "Shorthand for --category Software --category Hybrid")
}

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Merge stored records into a JSON export file",
	Long: `Merge stored records into an export file, keeping records already in
the file that are no longer in the database.

Records from the database replace file entries with the same application
number. A path ending in .jsonl is written one record per line, anything
else as a JSON array. Without a path the file goes to the output directory
as all_patents.json, or classified_patents.json with --software.

A corrupt export file is reported and replaced.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

// ExportResult is the response for the export command.
type ExportResult struct {
	Path     string `json:"path"`
	Exported int    `json:"exported"`
	Existing int    `json:"existing"`
	Total    int    `json:"total"`
	Warning  string `json:"warning,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
	categories, err := exportCategoryList(exportCategories, exportSoftware)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	cfg := mustLoadConfig()
	log := newLogger(cfg).WithField("component", "export")
	db := mustOpenDatabase(cfg)
	defer db.Close()

	path := cfg.OutputFile(history.AllRecordsFile)
	if exportSoftware {
		path = cfg.OutputFile(history.ClassifiedRecordsFile)
	}
	if len(args) == 1 {
		path = args[0]
	}

	fresh, err := collectRecords(cmd.Context(), db, categories)
	if err != nil {
		exitWithError(ExitError, "reading records: %v", err)
	}

	result, err := exportRecords(path, fresh, log)
	if err != nil {
		exitWithError(ExitError, "exporting: %v", err)
	}

	if humanOutput {
		outputHuman("Exported %d record(s) to %s (%d total)\n", result.Exported, result.Path, result.Total)
		if result.Warning != "" {
			outputHuman("  warning: %s\n", result.Warning)
		}
		return nil
	}
	return outputJSON(result)
}

// exportCategoryList resolves the category flags; nil means every category.
func exportCategoryList(names []string, software bool) ([]patent.Category, error) {
	var cats []patent.Category
	if software {
		cats = append(cats, patent.CategorySoftware, patent.CategoryHybrid)
	}
	for _, name := range names {
		c, ok := patent.ParseCategory(name)
		if !ok {
			return nil, errors.New("invalid category " + name + ": must be Software, Hybrid, Non-Software or Unknown")
		}
		cats = append(cats, c)
	}
	return cats, nil
}

func collectRecords(ctx context.Context, db *storage.DB, categories []patent.Category) ([]patent.Record, error) {
	if len(categories) == 0 {
		return db.ListPatents(ctx, storage.Filter{})
	}
	var records []patent.Record
	seen := make(map[patent.Category]bool)
	for _, c := range categories {
		if seen[c] {
			continue
		}
		seen[c] = true
		found, err := db.ListPatents(ctx, storage.Filter{Category: c})
		if err != nil {
			return nil, err
		}
		records = append(records, found...)
	}
	return records, nil
}

// exportRecords merges fresh into the file at path. A corrupt file is
// logged, reported in the result and overwritten.
func exportRecords(path string, fresh []patent.Record, log logrus.FieldLogger) (ExportResult, error) {
	result := ExportResult{Path: path, Exported: len(fresh)}

	existing, err := history.Load(path)
	if err != nil {
		if !errors.Is(err, history.ErrCorrupt) {
			return result, err
		}
		log.WithError(err).Warn("existing export unreadable, starting fresh")
		result.Warning = err.Error()
	}
	result.Existing = len(existing)

	merged := history.Merge(existing, fresh)
	if err := history.Save(path, merged); err != nil {
		return result, err
	}
	result.Total = len(merged)
	return result, nil
}
