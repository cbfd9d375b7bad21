package journal

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/matsen/patentwatch/internal/serial"
)

// ParseListing reads the journal listing page. Rows keep page order, which
// the site prints newest first. Rows without a week/year serial in the
// second column are skipped.
func ParseListing(r io.Reader) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	var listings []Listing
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cols := row.Find("td")
		if cols.Length() < 2 {
			return
		}

		text := strings.TrimSpace(cols.Eq(1).Text())
		if _, ok := serial.Parse(text); !ok {
			return
		}

		l := Listing{Serial: text}
		cols.Last().Find("form").Each(func(_ int, form *goquery.Selection) {
			button := form.Find("button").First()
			if button.Length() == 0 {
				return
			}
			input := form.Find(`input[type="hidden"][name="FileName"]`).First()
			if input.Length() == 0 {
				return
			}
			value, _ := input.Attr("value")

			switch partLabel(button.Text()) {
			case "part i", "part 1":
				l.Part1FileName = value
			case "part ii", "part 2":
				l.Part2FileName = value
			}
		})
		listings = append(listings, l)
	})

	return listings, nil
}

// partLabel normalizes button text for exact matching.
func partLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// HasParts reports whether the listing offers anything to download.
func (l Listing) HasParts() bool {
	return l.Part1FileName != "" || l.Part2FileName != ""
}
