// Package pdfdoc probes page counts and extracts plain text from PDF bytes.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrEmptyDocument is returned when there are no bytes to read.
var ErrEmptyDocument = errors.New("empty document")

// Reader uses pdfcpu for structure and ledongthuc/pdf for text.
type Reader struct {
	conf *model.Configuration
}

// NewReader returns a Reader validating in relaxed mode, which tolerates the
// minor format violations common in published PDFs.
func NewReader() *Reader {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Reader{conf: conf}
}

// PageCount returns the number of pages in data.
func (r *Reader) PageCount(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrEmptyDocument
	}
	n, err := api.PageCount(bytes.NewReader(data), r.conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}

// ExtractText returns the plain text of every page, in page order. Each text
// row ends with a newline and each page with a blank line.
func (r *Reader) ExtractText(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}
	// The text extractor panics on some malformed content streams.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("failed to extract text: malformed PDF: %v", p)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("failed to extract text of page %d: %w", i, err)
		}
		for _, row := range rows {
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
