package extract

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/matsen/patentwatch/internal/journal"
	"github.com/matsen/patentwatch/internal/patent"
	"github.com/matsen/patentwatch/internal/pdf"
)

// Ledger is the part of the journal ledger the processor drives.
type Ledger interface {
	ListJournalsByStatus(ctx context.Context, status journal.Status) ([]journal.Artifact, error)
	SetJournalStatus(ctx context.Context, id string, status journal.Status) error
}

// RecordStore receives extracted records.
type RecordStore interface {
	UpsertPatent(ctx context.Context, rec patent.Record) error
}

// OpenFunc opens a downloaded journal part.
type OpenFunc func(path string) (pdf.Document, error)

// OpenFile opens parts from disk.
func OpenFile(path string) (pdf.Document, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Summary counts the outcome of one extraction run.
type Summary struct {
	Journals     int `json:"journals"`
	Extracted    int `json:"extracted"`
	Failed       int `json:"failed"`
	PartsOpened  int `json:"parts_opened"`
	PartErrors   int `json:"part_errors"`
	Pages        int `json:"pages"`
	PageErrors   int `json:"page_errors"`
	Records      int `json:"records"`
	RecordErrors int `json:"record_errors"`
	LedgerErrors int `json:"ledger_errors"`
}

// Processor extracts records from every downloaded journal.
type Processor struct {
	ledger    Ledger
	store     RecordStore
	open      OpenFunc
	extractor *Extractor
	log       logrus.FieldLogger
}

// NewProcessor creates a processor. A nil open uses OpenFile.
func NewProcessor(ledger Ledger, store RecordStore, open OpenFunc, log logrus.FieldLogger) *Processor {
	if open == nil {
		open = OpenFile
	}
	return &Processor{
		ledger:    ledger,
		store:     store,
		open:      open,
		extractor: New(),
		log:       log.WithField("component", "extract"),
	}
}

// Run processes each journal with status downloaded. Failures on one journal,
// part, page or record are logged and counted. Failing to list the pending
// journals is returned as an error, as is cancellation of ctx; an interrupted
// journal is put back to downloaded so the next run retries it.
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	pending, err := p.ledger.ListJournalsByStatus(ctx, journal.StatusDownloaded)
	if err != nil {
		return sum, fmt.Errorf("listing downloaded journals: %w", err)
	}
	p.log.WithField("journals", len(pending)).Info("starting extraction")

	for _, art := range pending {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Journals++
		if err := p.processJournal(ctx, art, &sum); err != nil {
			p.log.WithError(err).WithField("journal", art.JournalID).Warn("extraction interrupted")
			return sum, err
		}
	}

	p.log.WithFields(logrus.Fields{
		"extracted": sum.Extracted,
		"failed":    sum.Failed,
		"records":   sum.Records,
	}).Info("extraction finished")
	return sum, nil
}

// processJournal extracts both parts of one journal and writes its final
// status. It returns an error only when ctx is cancelled.
func (p *Processor) processJournal(ctx context.Context, art journal.Artifact, sum *Summary) error {
	log := p.log.WithField("journal", art.JournalID)
	p.setStatus(ctx, art.JournalID, journal.StatusExtracting, sum)

	parts := []struct {
		path string
		tag  string
	}{
		{art.Part1Path, patent.PartEarly},
		{art.Part2Path, patent.PartOrdinary},
	}

	opened := 0
	var stored, storeErrors int
	for _, part := range parts {
		if part.path == "" {
			continue
		}
		res, err := p.processPart(ctx, art.JournalID, part.path, part.tag, sum)
		if cerr := ctx.Err(); cerr != nil {
			p.setStatus(context.WithoutCancel(ctx), art.JournalID, journal.StatusDownloaded, sum)
			return cerr
		}
		if err != nil {
			log.WithError(err).WithField("path", part.path).Warn("cannot read journal part")
			sum.PartErrors++
			continue
		}
		opened++
		stored += res.stored
		storeErrors += res.storeErrors
	}

	// The scan is complete; the final status is written even if ctx is
	// cancelled from here on.
	final := context.WithoutCancel(ctx)
	switch {
	case opened == 0:
		sum.Failed++
		p.setStatus(final, art.JournalID, journal.StatusErrorExtracting, sum)
	case stored == 0 && storeErrors > 0:
		log.WithField("record_errors", storeErrors).Warn("no extracted record could be stored")
		sum.Failed++
		p.setStatus(final, art.JournalID, journal.StatusErrorExtracting, sum)
	default:
		sum.Extracted++
		p.setStatus(final, art.JournalID, journal.StatusExtracted, sum)
	}
	return nil
}

// partResult counts what one part contributed to the store.
type partResult struct {
	stored      int
	storeErrors int
}

// processPart scans every page of one part. It returns an error if the
// document could not be opened or ctx was cancelled mid-part.
func (p *Processor) processPart(ctx context.Context, journalID, path, tag string, sum *Summary) (partResult, error) {
	var res partResult
	doc, err := p.open(path)
	if err != nil {
		return res, err
	}
	defer doc.Close()
	sum.PartsOpened++

	log := p.log.WithFields(logrus.Fields{"journal": journalID, "part": tag})

	for n := 1; n <= doc.NumPages(); n++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sum.Pages++
		text, err := doc.PageText(n)
		if err != nil {
			log.WithError(err).Debug("skipping page")
			sum.PageErrors++
			continue
		}

		rec, ok := p.extractor.ExtractPage(text, tag)
		if !ok {
			continue
		}
		rec.JournalID = journalID

		if err := p.store.UpsertPatent(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.WithError(err).WithField("application_no", rec.ApplicationNo).Warn("cannot store record")
			sum.RecordErrors++
			res.storeErrors++
			continue
		}
		sum.Records++
		res.stored++
	}

	log.WithFields(logrus.Fields{"pages": doc.NumPages(), "records": res.stored}).Info("part processed")
	return res, nil
}

func (p *Processor) setStatus(ctx context.Context, id string, status journal.Status, sum *Summary) {
	if err := p.ledger.SetJournalStatus(ctx, id, status); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"journal": id,
			"status":  status,
		}).Error("cannot update journal status")
		sum.LedgerErrors++
	}
}
