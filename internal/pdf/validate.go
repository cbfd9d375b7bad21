package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotPDF is returned when content does not start with a PDF header,
// typically an HTML error page served in place of a journal.
var ErrNotPDF = errors.New("not a PDF document")

var pdfMagic = []byte("%PDF-")

// Validate checks that the file at path is a structurally readable PDF and
// returns its page count.
func Validate(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ValidateReader(f)
}

// ValidateReader is Validate for an already-open document.
func ValidateReader(rs io.ReadSeeker) (int, error) {
	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(rs, header); err != nil || !bytes.Equal(header, pdfMagic) {
		return 0, ErrNotPDF
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return 0, fmt.Errorf("reading PDF structure: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return ctx.PageCount, nil
}
