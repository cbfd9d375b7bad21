// Package classify derives a software-relevance category from a record's
// classification codes.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/matsen/patentwatch/internal/patent"
)

// DefaultPrefixes are the IPC groups treated as software: computing, network
// protocols, health informatics and control systems.
var DefaultPrefixes = []string{"G06", "H04L", "G16H", "G05B"}

// NormalizeCodes splits a raw classification string into codes. Codes are
// separated by commas only; colons are treated as spacing, and spacing inside
// a code is removed.
func NormalizeCodes(raw string) []string {
	raw = strings.ReplaceAll(raw, ":", " ")

	var codes []string
	for _, tok := range strings.Split(raw, ",") {
		code := strings.ToUpper(strings.Join(strings.Fields(tok), ""))
		if code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// Classify maps codes to a category using the software prefixes.
func Classify(codes, prefixes []string) patent.Category {
	if len(codes) == 0 {
		return patent.CategoryUnknown
	}

	software, other := 0, 0
	for _, code := range codes {
		if hasAnyPrefix(code, prefixes) {
			software++
		} else {
			other++
		}
	}

	switch {
	case software > 0 && other > 0:
		return patent.CategoryHybrid
	case software > 0:
		return patent.CategorySoftware
	default:
		return patent.CategoryNonSoftware
	}
}

func hasAnyPrefix(code string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(code, strings.ToUpper(p)) {
			return true
		}
	}
	return false
}

// Store is the record store the classifier reads from and writes to.
type Store interface {
	ListPatentsByStatus(ctx context.Context, status patent.Status) ([]patent.Record, error)
	UpdateClassification(ctx context.Context, applicationNo string, category patent.Category, codes []string) error
}

// Summary counts the outcome of one classification run.
type Summary struct {
	Processed  int                     `json:"processed"`
	Classified int                     `json:"classified"`
	Failed     int                     `json:"failed"`
	Categories map[patent.Category]int `json:"categories"`
}

// Classifier classifies every newly extracted record.
type Classifier struct {
	store    Store
	prefixes []string
	log      logrus.FieldLogger
}

// New creates a classifier. Empty prefixes use DefaultPrefixes.
func New(store Store, prefixes []string, log logrus.FieldLogger) *Classifier {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	return &Classifier{
		store:    store,
		prefixes: prefixes,
		log:      log.WithField("component", "classify"),
	}
}

// Run classifies each newly extracted record independently. A record that
// cannot be saved is logged and counted; only failing to list records is an
// error.
func (c *Classifier) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Categories: make(map[patent.Category]int)}

	records, err := c.store.ListPatentsByStatus(ctx, patent.StatusNewlyExtracted)
	if err != nil {
		return sum, fmt.Errorf("listing unclassified records: %w", err)
	}
	c.log.WithField("records", len(records)).Info("starting classification")

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Processed++

		codes := NormalizeCodes(rec.RawClassification)
		category := Classify(codes, c.prefixes)

		if err := c.store.UpdateClassification(ctx, rec.ApplicationNo, category, codes); err != nil {
			c.log.WithError(err).WithField("application_no", rec.ApplicationNo).Warn("cannot save classification")
			sum.Failed++
			continue
		}
		sum.Classified++
		sum.Categories[category]++
	}

	c.log.WithFields(logrus.Fields{
		"classified": sum.Classified,
		"failed":     sum.Failed,
	}).Info("classification finished")
	return sum, nil
}
