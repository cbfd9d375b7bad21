package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/patentwatch/internal/journal"
	"github.com/matsen/patentwatch/internal/patent"
	"github.com/matsen/patentwatch/internal/storage"
)

var (
	listStatus   string
	listCategory string
	listQuery    string
	listLimit    int

	journalsStatus string
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by record status (newly_extracted, classified)")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Filter by category (Software, Hybrid, Non-Software, Unknown)")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Full-text search over title, abstract and applicant")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", DefaultListLimit, "Maximum results (0 for all)")

	rootCmd.AddCommand(journalsCmd)
	journalsCmd.Flags().StringVar(&journalsStatus, "status", "", "Filter by journal status (downloaded, extracting, extracted, error_extracting)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored patent records",
	Long: `List stored patent records ordered by application number.

Example:
  pw list --category Software --limit 20
  pw list --query "machine learning" --human`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// ListResult is the response for the list command.
type ListResult struct {
	Records []patent.Record       `json:"records"`
	Count   int                   `json:"count"`
	Totals  map[patent.Status]int `json:"totals"`
}

func runList(cmd *cobra.Command, args []string) error {
	filter, errMsg := buildListFilter(listStatus, listCategory, listQuery, listLimit)
	if errMsg != "" {
		exitWithError(ExitError, "%s", errMsg)
	}

	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	records, err := db.ListPatents(cmd.Context(), filter)
	if err != nil {
		exitWithError(ExitError, "listing records: %v", err)
	}

	if humanOutput {
		printRecordsHuman(records)
		return nil
	}

	totals, err := db.CountPatents(cmd.Context())
	if err != nil {
		exitWithError(ExitError, "counting records: %v", err)
	}
	if records == nil {
		records = []patent.Record{}
	}
	return outputJSON(ListResult{Records: records, Count: len(records), Totals: totals})
}

// buildListFilter validates list flags. It returns a message for the first
// invalid flag.
func buildListFilter(status, category, query string, limit int) (storage.Filter, string) {
	f := storage.Filter{Query: query, Limit: limit}
	if status != "" {
		f.Status = patent.Status(status)
		if !f.Status.Valid() {
			return storage.Filter{}, "invalid status " + status + ": must be newly_extracted or classified"
		}
	}
	if category != "" {
		c, ok := patent.ParseCategory(category)
		if !ok {
			return storage.Filter{}, "invalid category " + category + ": must be Software, Hybrid, Non-Software or Unknown"
		}
		f.Category = c
	}
	if limit < 0 {
		return storage.Filter{}, "limit must not be negative"
	}
	return f, ""
}

var journalsCmd = &cobra.Command{
	Use:   "journals",
	Short: "List journals in the ledger",
	Args:  cobra.NoArgs,
	RunE:  runJournals,
}

func runJournals(cmd *cobra.Command, args []string) error {
	var statuses []journal.Status
	if journalsStatus != "" {
		s := journal.Status(journalsStatus)
		if !s.Valid() {
			exitWithError(ExitError, "invalid status %s", journalsStatus)
		}
		statuses = append(statuses, s)
	} else {
		statuses = journal.Statuses
	}

	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	arts := []journal.Artifact{}
	for _, s := range statuses {
		found, err := db.ListJournalsByStatus(cmd.Context(), s)
		if err != nil {
			exitWithError(ExitError, "listing journals: %v", err)
		}
		arts = append(arts, found...)
	}

	if humanOutput {
		printJournalsHuman(arts)
		return nil
	}
	return outputJSON(arts)
}
