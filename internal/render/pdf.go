package render

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"thesisgen/internal/domain"
)

// PDF prints the HTML rendition through a PDFConverter.
type PDF struct {
	Converter PDFConverter
}

func (p PDF) Write(ctx context.Context, w io.Writer, doc *domain.Document) error {
	if p.Converter == nil {
		return domain.ErrPDFUnavailable
	}
	var page bytes.Buffer
	if err := (HTML{}).Write(ctx, &page, doc); err != nil {
		return err
	}
	out, err := p.Converter.ConvertHTML(ctx, page.Bytes())
	if err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	_, err = w.Write(out)
	return err
}
