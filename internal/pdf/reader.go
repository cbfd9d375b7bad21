// Package pdf reads page text from journal PDFs and validates downloads.
package pdf

import (
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned for a page with no text layer.
var ErrNoText = errors.New("page has no text")

// Document is a PDF opened for page-by-page text extraction.
type Document interface {
	NumPages() int
	// PageText returns the plain text of page n, counting from 1.
	PageText(n int) (string, error)
	Close() error
}

// File is a Document backed by a file on disk.
type File struct {
	f *os.File
	r *pdf.Reader
}

// Open opens a PDF file for reading.
func Open(path string) (*File, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &File{f: f, r: r}, nil
}

// NumPages returns the number of pages in the document.
func (d *File) NumPages() int {
	return d.r.NumPage()
}

// PageText extracts the plain text of page n. A page whose content stream
// cannot be decoded yields an error rather than aborting the document.
func (d *File) PageText(n int) (text string, err error) {
	if n < 1 || n > d.r.NumPage() {
		return "", fmt.Errorf("page %d out of range 1..%d", n, d.r.NumPage())
	}

	page := d.r.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: %w", n, ErrNoText)
	}

	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: malformed content: %v", n, r)
		}
	}()

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	return text, nil
}

// Close releases the underlying file.
func (d *File) Close() error {
	return d.f.Close()
}
