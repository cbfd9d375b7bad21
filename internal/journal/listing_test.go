package journal

import (
	"errors"
	"strings"
	"testing"
)

const listingHTML = `<html><body>
<table class="table">
  <tr><th>S.No.</th><th>Journal No.</th><th>Date of Publication</th><th>Download</th></tr>
  <tr>
    <td>1</td><td> 46/2025 </td><td>14/11/2025</td>
    <td>
      <form action="/IPOJournal/Journal/ViewJournal" method="post">
        <input type="hidden" name="FileName" value="2025/46/Part-1.pdf"/>
        <button type="submit"> Part   I </button>
      </form>
      <form action="/IPOJournal/Journal/ViewJournal" method="post">
        <input type="hidden" name="FileName" value="2025/46/Part-2.pdf"/>
        <button type="submit">Part II</button>
      </form>
    </td>
  </tr>
  <tr>
    <td>2</td><td>45/2025</td><td>07/11/2025</td>
    <td>
      <form><input type="hidden" name="FileName" value="2025/45/Part-2.pdf"/><button>Part 2</button></form>
      <form><input type="hidden" name="FileName" value="2025/45/Index.pdf"/><button>Part II Index</button></form>
      <form><button>Part 1</button></form>
    </td>
  </tr>
  <tr><td>3</td><td>Special Issue</td><td>01/11/2025</td><td></td></tr>
  <tr>
    <td>4</td><td>44/2025</td><td>31/10/2025</td>
    <td><form><input type="hidden" name="FileName" value="2025/44/Part-1.pdf"/><button>PART 1</button></form></td>
  </tr>
</table>
<table><tr><td>footer</td><td>1/2000</td></tr></table>
</body></html>`

func TestParseListing(t *testing.T) {
	listings, err := ParseListing(strings.NewReader(listingHTML))
	if err != nil {
		t.Fatalf("ParseListing() error = %v", err)
	}

	want := []Listing{
		{Serial: "46/2025", Part1FileName: "2025/46/Part-1.pdf", Part2FileName: "2025/46/Part-2.pdf"},
		{Serial: "45/2025", Part2FileName: "2025/45/Part-2.pdf"},
		{Serial: "44/2025", Part1FileName: "2025/44/Part-1.pdf"},
	}
	if len(listings) != len(want) {
		t.Fatalf("ParseListing() returned %d rows, want %d: %+v", len(listings), len(want), listings)
	}
	for i := range want {
		if listings[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, listings[i], want[i])
		}
	}
}

func TestParseListing_NoTable(t *testing.T) {
	_, err := ParseListing(strings.NewReader("<html><body><p>Maintenance</p></body></html>"))
	if !errors.Is(err, ErrNoTable) {
		t.Errorf("ParseListing() error = %v, want ErrNoTable", err)
	}
}

func TestListingHasParts(t *testing.T) {
	if (Listing{Serial: "1/2025"}).HasParts() {
		t.Error("HasParts() = true for a listing without forms")
	}
	if !(Listing{Part2FileName: "x"}).HasParts() {
		t.Error("HasParts() = false for a listing with Part II")
	}
}
