package journal

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/matsen/patentwatch/internal/serial"
)

// Source lists journals and fetches their parts.
type Source interface {
	FetchListing(ctx context.Context) ([]Listing, error)
	DownloadPart(ctx context.Context, fileName, dest string) error
}

// Ledger records discovered journals.
type Ledger interface {
	KnownJournalIDs(ctx context.Context) (map[string]bool, error)
	RecordJournal(ctx context.Context, id, part1Path, part2Path string) (bool, error)
}

// DiscoverSummary counts the outcome of one discovery run.
type DiscoverSummary struct {
	Listed       int    `json:"listed"`
	New          int    `json:"new"`
	Known        int    `json:"known"`
	Failed       int    `json:"failed"`
	Parts        int    `json:"parts_downloaded"`
	PartErrors   int    `json:"part_errors"`
	LedgerErrors int    `json:"ledger_errors"`
	StoppedAt    string `json:"stopped_at,omitempty"` // first serial below the baseline
}

// Discoverer finds new journals on the listing page and downloads them.
type Discoverer struct {
	source   Source
	ledger   Ledger
	dir      string
	baseline *serial.Serial
	log      logrus.FieldLogger
}

// NewDiscoverer creates a discoverer that stores parts under dir. An empty
// baseline disables the cutoff.
func NewDiscoverer(source Source, ledger Ledger, dir, baseline string, log logrus.FieldLogger) (*Discoverer, error) {
	d := &Discoverer{
		source: source,
		ledger: ledger,
		dir:    dir,
		log:    log.WithField("component", "discover"),
	}
	if baseline != "" {
		s, ok := serial.Parse(baseline)
		if !ok {
			return nil, fmt.Errorf("baseline serial %q is not in week/year form", baseline)
		}
		d.baseline = &s
	}
	return d, nil
}

// Run scans the listing newest first and records every journal not yet in
// the ledger for which at least one part downloaded. The scan stops at the
// first journal older than the baseline. Only failing to load the ledger or
// the listing is returned as an error.
func (d *Discoverer) Run(ctx context.Context) (DiscoverSummary, error) {
	var sum DiscoverSummary

	known, err := d.ledger.KnownJournalIDs(ctx)
	if err != nil {
		return sum, fmt.Errorf("loading known journals: %w", err)
	}

	listings, err := d.source.FetchListing(ctx)
	if err != nil {
		return sum, fmt.Errorf("fetching journal listing: %w", err)
	}
	d.log.WithFields(logrus.Fields{"listed": len(listings), "known": len(known)}).Info("listing fetched")

	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		s, ok := serial.Parse(l.Serial)
		if !ok {
			continue
		}
		if d.baseline != nil && s.Compare(*d.baseline) < 0 {
			d.log.WithField("serial", l.Serial).Info("reached baseline, stopping")
			sum.StoppedAt = l.Serial
			break
		}
		sum.Listed++

		id := serial.JournalID(l.Serial)
		if known[id] {
			sum.Known++
			continue
		}

		d.fetchJournal(ctx, id, l, &sum)
	}

	d.log.WithFields(logrus.Fields{"new": sum.New, "failed": sum.Failed}).Info("discovery finished")
	return sum, nil
}

func (d *Discoverer) fetchJournal(ctx context.Context, id string, l Listing, sum *DiscoverSummary) {
	log := d.log.WithField("journal", id)

	part1 := d.fetchPart(ctx, id, Part1Name, l.Part1FileName, sum)
	part2 := d.fetchPart(ctx, id, Part2Name, l.Part2FileName, sum)
	if part1 == "" && part2 == "" {
		log.Warn("no parts downloaded")
		sum.Failed++
		return
	}

	inserted, err := d.ledger.RecordJournal(ctx, id, part1, part2)
	if err != nil {
		log.WithError(err).Error("cannot record journal")
		sum.LedgerErrors++
		return
	}
	if inserted {
		sum.New++
	}
}

// fetchPart downloads one part and returns its path, or "" if the part is
// not offered or failed.
func (d *Discoverer) fetchPart(ctx context.Context, id, part, fileName string, sum *DiscoverSummary) string {
	if fileName == "" {
		return ""
	}

	dest := PartPath(d.dir, id, part)
	if err := d.source.DownloadPart(ctx, fileName, dest); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{"journal": id, "part": part}).Warn("download failed")
		sum.PartErrors++
		return ""
	}
	sum.Parts++
	return dest
}
