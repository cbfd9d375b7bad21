// Package patent defines the core domain types for published patent applications.
package patent

import (
	"strings"
	"time"
)

// Status tracks a record through the classification lifecycle.
type Status string

const (
	StatusNewlyExtracted Status = "newly_extracted"
	StatusClassified     Status = "classified"
)

// Valid reports whether s is a known record status.
func (s Status) Valid() bool {
	return s == StatusNewlyExtracted || s == StatusClassified
}

// Category is the software relevance derived from classification codes.
type Category string

const (
	CategorySoftware    Category = "Software"
	CategoryHybrid      Category = "Hybrid"
	CategoryNonSoftware Category = "Non-Software"
	CategoryUnknown     Category = "Unknown"
)

// Categories lists every category in display order.
var Categories = []Category{CategorySoftware, CategoryHybrid, CategoryNonSoftware, CategoryUnknown}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Publication parts of a weekly journal.
const (
	PartEarly    = "early_publication"    // Part I
	PartOrdinary = "ordinary_publication" // Part II
)

// Record is one patent application recovered from a journal page.
type Record struct {
	// Identity
	ApplicationNo string `json:"application_no"` // May carry a trailing kind suffix, e.g. "202511087359 A"

	// Content
	Title           string `json:"title"`
	DateOfFiling    string `json:"date_of_filing"`   // DD/MM/YYYY as printed
	PublicationDate string `json:"publication_date"` // DD/MM/YYYY as printed
	Abstract        string `json:"abstract"`
	Applicant       string `json:"applicant"`
	Inventor        string `json:"inventor"`

	// Classification
	RawClassification   string   `json:"raw_classification_codes,omitempty"`
	ClassificationCodes []string `json:"classification_codes,omitempty"`
	Category            Category `json:"category,omitempty"`
	Status              Status   `json:"status"`

	// Provenance
	PublicationPart string `json:"publication_part"`
	JournalID       string `json:"journal_id,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SearchKey returns the application number without its trailing suffix token,
// the form expected by the public search form.
func SearchKey(applicationNo string) string {
	fields := strings.Fields(applicationNo)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// IsSoftwareRelated reports whether the record was classified Software or Hybrid.
func (r Record) IsSoftwareRelated() bool {
	return r.Category == CategorySoftware || r.Category == CategoryHybrid
}
