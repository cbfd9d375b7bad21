package pdf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/patentwatch/internal/pdf/pdftest"
)

func TestOpenAndPageText(t *testing.T) {
	path := pdftest.WriteFile(t, "journal.pdf", "first page text", "second page text")

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer doc.Close()

	if doc.NumPages() != 2 {
		t.Fatalf("NumPages() = %d, want 2", doc.NumPages())
	}

	text, err := doc.PageText(2)
	if err != nil {
		t.Fatalf("PageText(2) error = %v", err)
	}
	if !strings.Contains(text, "second") {
		t.Errorf("PageText(2) = %q, want it to contain %q", text, "second")
	}

	if _, err := doc.PageText(3); err == nil {
		t.Error("PageText(3) should fail for an out of range page")
	}
	if _, err := doc.PageText(0); err == nil {
		t.Error("PageText(0) should fail for an out of range page")
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("Open() should fail for a missing file")
	}
}

func TestValidate(t *testing.T) {
	path := pdftest.WriteFile(t, "ok.pdf", "one", "two", "three")

	n, err := Validate(path)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Validate() = %d pages, want 3", n)
	}
}

func TestValidate_HTMLPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error.pdf")
	if err := os.WriteFile(path, []byte("<html><body>Service Unavailable</body></html>"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Validate(path); !errors.Is(err, ErrNotPDF) {
		t.Errorf("Validate() error = %v, want ErrNotPDF", err)
	}
}

func TestValidateReader_ShortInput(t *testing.T) {
	if _, err := ValidateReader(bytes.NewReader([]byte("%PD"))); !errors.Is(err, ErrNotPDF) {
		t.Errorf("short input error = %v, want ErrNotPDF", err)
	}
}
