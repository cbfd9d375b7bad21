package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/matsen/patentwatch/internal/classify"
	"github.com/matsen/patentwatch/internal/config"
	"github.com/matsen/patentwatch/internal/extract"
	"github.com/matsen/patentwatch/internal/journal"
	"github.com/matsen/patentwatch/internal/storage"
)

// newJournalClient builds the listing and download client from config.
func newJournalClient(cfg config.Config) *journal.Client {
	jc := cfg.Journal
	return journal.NewClient(jc.ListingURL, jc.ViewURL,
		journal.WithUserAgent(jc.UserAgent),
		journal.WithRateLimit(jc.RequestsPerSec),
		journal.WithTimeouts(jc.ListingTimeout, jc.DownloadTimeout),
	)
}

// runDiscoverStage finds and downloads new journals. Only a failure to start
// (bad baseline, ledger or listing unavailable) is returned.
func runDiscoverStage(ctx context.Context, cfg config.Config, db *storage.DB, log logrus.FieldLogger) (journal.DiscoverSummary, error) {
	d, err := journal.NewDiscoverer(newJournalClient(cfg), db, cfg.RawPDFPath(), cfg.Journal.BaselineSerial, log)
	if err != nil {
		return journal.DiscoverSummary{}, err
	}
	return d.Run(ctx)
}

// runExtractStage extracts records from every downloaded journal.
func runExtractStage(ctx context.Context, db *storage.DB, log logrus.FieldLogger) (extract.Summary, error) {
	return extract.NewProcessor(db, db, nil, log).Run(ctx)
}

// runClassifyStage classifies every newly extracted record.
func runClassifyStage(ctx context.Context, cfg config.Config, db *storage.DB, log logrus.FieldLogger) (classify.Summary, error) {
	return classify.New(db, cfg.SoftwarePrefixes, log).Run(ctx)
}

// signalContext returns the command context cancelled on interrupt.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
