// Package extract recovers patent records from journal page text.
package extract

import (
	"regexp"
	"strings"
)

// Field names produced by Scan with the default field table.
const (
	FieldPublication     = "publication"
	FieldApplicationNo   = "application_no"
	FieldDateOfFiling    = "date_of_filing"
	FieldPublicationDate = "publication_date"
	FieldTitle           = "title"
	FieldClassification  = "classification"
	FieldApplicant       = "applicant"
	FieldInventor        = "inventor"
	FieldAbstract        = "abstract"
)

// Field is one labeled block of a journal entry. The value of a field is the
// text between its anchor and the earliest of its successors. A field with no
// successors is a marker: it must be present but captures nothing.
type Field struct {
	Name     string
	Anchor   *regexp.Regexp
	Next     []*regexp.Regexp
	Optional bool
}

// anchor compiles a label pattern that tolerates case, spacing and a
// trailing colon.
func anchor(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + label + `\s*:?`)
}

// boundary compiles a successor pattern. It is matched, never consumed.
func boundary(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + label)
}

var (
	publicationMarker = `\(12\)\s*PATENT\s+APPLICATION\s+PUBLICATION`

	// Blocks printed between the title and the applicant that are never
	// captured: priority data and PCT/related application references.
	priorityBlocks = []*regexp.Regexp{
		boundary(`\(31\)`),
		boundary(`\(86\)`),
		boundary(`\(87\)`),
		boundary(`\(61\)`),
		boundary(`\(62\)`),
	}
)

func successors(first []*regexp.Regexp, rest ...*regexp.Regexp) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(first)+len(rest))
	out = append(out, first...)
	return append(out, rest...)
}

// DefaultFields returns the field table of an Indian patent journal entry
// in printed order.
func DefaultFields() []Field {
	applicant := boundary(`\(71\)`)

	return []Field{
		{Name: FieldPublication, Anchor: anchor(publicationMarker)},
		{
			Name:   FieldApplicationNo,
			Anchor: anchor(`\(21\)\s*Application\s*No\.?`),
			Next:   []*regexp.Regexp{boundary(`\(19\)`), boundary(`\(22\)`)},
		},
		{
			Name:   FieldDateOfFiling,
			Anchor: anchor(`\(22\)\s*Date\s+of\s+filing\s+of\s+Application`),
			Next:   []*regexp.Regexp{boundary(`\(43\)`)},
		},
		{
			Name:   FieldPublicationDate,
			Anchor: anchor(`\(43\)\s*Publication\s+Date`),
			Next:   []*regexp.Regexp{boundary(`\(54\)`)},
		},
		{
			Name:   FieldTitle,
			Anchor: anchor(`\(54\)\s*Title\s+of\s+the\s+invention`),
			Next:   successors(priorityBlocks, boundary(`\(51\)`), applicant),
		},
		{
			Name:     FieldClassification,
			Anchor:   anchor(`\(51\)\s*International\s+classification`),
			Next:     successors(priorityBlocks, applicant),
			Optional: true,
		},
		{
			Name:   FieldApplicant,
			Anchor: anchor(`\(71\)\s*Name\s+of\s+Applicant`),
			Next:   []*regexp.Regexp{boundary(`\(72\)`)},
		},
		{
			Name:   FieldInventor,
			Anchor: anchor(`\(72\)\s*Name\s+of\s+Inventor`),
			Next:   []*regexp.Regexp{boundary(`\(57\)`)},
		},
		{
			Name:   FieldAbstract,
			Anchor: anchor(`\(57\)\s*Abstract`),
			Next: []*regexp.Regexp{
				boundary(`No\.\s*of\s*Pages`),
				boundary(`Description\s*:`),
				boundary(publicationMarker),
			},
		},
	}
}

// Scan walks fields in order over text. It returns the captured values by
// field name, or false if a mandatory field or its successor is missing.
func Scan(text string, fields []Field) (map[string]string, bool) {
	values := make(map[string]string, len(fields))
	cursor := 0

	for _, f := range fields {
		rest := text[cursor:]
		loc := f.Anchor.FindStringIndex(rest)

		if f.Optional {
			// Only accept the optional block if it precedes whatever follows it.
			if loc == nil {
				values[f.Name] = ""
				continue
			}
			if next := earliest(rest, 0, f.Next); next >= 0 && next < loc[0] {
				values[f.Name] = ""
				continue
			}
		}
		if loc == nil {
			return nil, false
		}

		start := cursor + loc[1]
		if len(f.Next) == 0 {
			cursor = start
			continue
		}

		end := earliest(text, start, f.Next)
		if end < 0 {
			return nil, false
		}
		values[f.Name] = clean(text[start:end])
		cursor = end
	}
	return values, true
}

// earliest returns the absolute offset of the first match of any pattern in
// text at or after from, or -1.
func earliest(text string, from int, patterns []*regexp.Regexp) int {
	best := -1
	for _, p := range patterns {
		loc := p.FindStringIndex(text[from:])
		if loc == nil {
			continue
		}
		if at := from + loc[0]; best < 0 || at < best {
			best = at
		}
	}
	return best
}

// clean collapses whitespace runs and strips leading colon separators.
func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(strings.TrimLeft(s, ": "))
}
