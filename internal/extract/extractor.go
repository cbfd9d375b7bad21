package extract

import (
	"github.com/matsen/patentwatch/internal/patent"
)

// Extractor turns a page of journal text into a patent record.
type Extractor struct {
	fields []Field
}

// New returns an Extractor over the default field table.
func New() *Extractor {
	return &Extractor{fields: DefaultFields()}
}

// NewWithFields returns an Extractor over a custom field table. The table must
// produce the field names of DefaultFields.
func NewWithFields(fields []Field) *Extractor {
	return &Extractor{fields: fields}
}

// ExtractPage recovers one record from the text of a single page. It reports
// false when the page is not a patent publication entry.
func (e *Extractor) ExtractPage(text, part string) (patent.Record, bool) {
	values, ok := Scan(text, e.fields)
	if !ok || values[FieldApplicationNo] == "" {
		return patent.Record{}, false
	}

	return patent.Record{
		ApplicationNo:     values[FieldApplicationNo],
		Title:             values[FieldTitle],
		DateOfFiling:      values[FieldDateOfFiling],
		PublicationDate:   values[FieldPublicationDate],
		Abstract:          values[FieldAbstract],
		Applicant:         values[FieldApplicant],
		Inventor:          values[FieldInventor],
		RawClassification: values[FieldClassification],
		Status:            patent.StatusNewlyExtracted,
		PublicationPart:   part,
	}, true
}
