// Package journal discovers and downloads weekly patent journals.
package journal

import "time"

// Status tracks a journal through the extraction stage.
type Status string

const (
	StatusDownloaded      Status = "downloaded"
	StatusExtracting      Status = "extracting"
	StatusExtracted       Status = "extracted"
	StatusErrorExtracting Status = "error_extracting"
)

// Statuses lists every journal status.
var Statuses = []Status{StatusDownloaded, StatusExtracting, StatusExtracted, StatusErrorExtracting}

// Valid reports whether s is a known journal status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Artifact is a ledger row: one journal and the parts fetched for it.
type Artifact struct {
	JournalID string    `json:"journal_id"`          // "week_year"
	Part1Path string    `json:"part1_path,omitempty"` // Part I (early publication) PDF
	Part2Path string    `json:"part2_path,omitempty"` // Part II (ordinary publication) PDF
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Listing is one row of the journal listing page.
type Listing struct {
	Serial        string // "week/year" as printed
	Part1FileName string // value posted to fetch Part I, empty if none offered
	Part2FileName string
}

// Part names used in downloaded file names.
const (
	Part1Name = "Part_I"
	Part2Name = "Part_II"
)
