// Package render serializes a domain.Document into an output format.
package render

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"thesisgen/internal/domain"
)

// Output formats.
const (
	FormatDOCX = "docx"
	FormatHTML = "html"
	FormatPDF  = "pdf"
)

// PDFConverter prints a standalone HTML page to PDF.
type PDFConverter interface {
	ConvertHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Writer serializes a whole document to w.
type Writer interface {
	Write(ctx context.Context, w io.Writer, doc *domain.Document) error
}

// FormatFromPath maps a file extension to an output format.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "docx":
		return FormatDOCX, nil
	case "html", "htm":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(path))
}

// ForFormat returns the Writer for format. pdf may be nil unless format is pdf.
func ForFormat(format string, pdf PDFConverter) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatDOCX:
		return DOCX{}, nil
	case FormatHTML:
		return HTML{}, nil
	case FormatPDF:
		if pdf == nil {
			return nil, domain.ErrPDFUnavailable
		}
		return PDF{Converter: pdf}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
}

// ForPath returns the Writer implied by the extension of path.
func ForPath(path string, pdf PDFConverter) (Writer, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return ForFormat(format, pdf)
}

// ContentType is the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}
