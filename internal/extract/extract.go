package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrEmptyPayload indicates there were no bytes to parse.
	ErrEmptyPayload = errors.New("empty pdf payload")

	// ErrNoPages indicates the document parsed but reports zero pages.
	ErrNoPages = errors.New("pdf has no pages")
)

func init() {
	// Keep pdfcpu from creating a config directory under the user's home.
	api.DisableConfigDir()
}

// PDFExtractor pulls plain text out of PDF bytes.
// Libraries used: github.com/pdfcpu/pdfcpu (structure check, page count) and
// github.com/ledongthuc/pdf (text).
type PDFExtractor struct {
	// MaxPages rejects documents with more pages than this; zero means no limit.
	MaxPages int
}

// NewPDFExtractor constructs a PDFExtractor with no page limit.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns the document text with surrounding whitespace trimmed.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}

	pages, err := PageCount(data)
	if err != nil {
		return "", err
	}
	if e.MaxPages > 0 && pages > e.MaxPages {
		return "", fmt.Errorf("pdf has %d pages, limit is %d", pages, e.MaxPages)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := extractPDF(data)
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// PageCount validates the PDF structure and returns its page count.
func PageCount(data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("read pdf structure: %w", err)
	}
	if count <= 0 {
		return 0, ErrNoPages
	}
	return count, nil
}

func extractPDF(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
