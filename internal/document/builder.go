// Package document is the content-insertion API: headings, paragraphs,
// pictures and page breaks are appended in call order and the result is
// serialized once by Save.
package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"thesisgen/internal/domain"
	"thesisgen/internal/infra/logging"
	"thesisgen/internal/render"
)

// Builder accumulates a domain.Document.
type Builder struct {
	doc domain.Document
	pdf render.PDFConverter
}

// New returns an empty document using style as its Normal style.
func New(style domain.Style) *Builder {
	return &Builder{doc: domain.Document{Style: style}}
}

// WithPDF sets the converter used when saving to .pdf.
func (b *Builder) WithPDF(c render.PDFConverter) *Builder {
	b.pdf = c
	return b
}

// SetTitle sets the document title metadata.
func (b *Builder) SetTitle(title string) {
	b.doc.Title = title
}

// Document exposes the accumulated model.
func (b *Builder) Document() *domain.Document {
	return &b.doc
}

// AddHeading appends a heading. Level 0 is the document title style.
func (b *Builder) AddHeading(text string, level int) error {
	if level < 0 || level > 9 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidHeadingLevel, level)
	}
	b.doc.Blocks = append(b.doc.Blocks, domain.Block{
		Kind:  domain.BlockHeading,
		Level: level,
		Runs:  runsFor(text),
	})
	return nil
}

// AddParagraph appends a paragraph holding text as a single run; an empty
// text yields an empty paragraph. Newlines in text are line breaks.
func (b *Builder) AddParagraph(text string) *Paragraph {
	b.doc.Blocks = append(b.doc.Blocks, domain.Block{
		Kind: domain.BlockParagraph,
		Runs: runsFor(text),
	})
	return &Paragraph{b: b, idx: len(b.doc.Blocks) - 1}
}

func runsFor(text string) []domain.Run {
	if text == "" {
		return nil
	}
	return []domain.Run{{Text: text}}
}

// AddPicture reads the image at path and appends it scaled to widthIn inches
// with its aspect ratio kept.
func (b *Builder) AddPicture(path string, widthIn float64) error {
	if widthIn <= 0 {
		return fmt.Errorf("picture %s: width must be positive, got %g", path, widthIn)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("picture: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("picture %s: %w", path, err)
	}
	b.doc.Blocks = append(b.doc.Blocks, domain.Block{
		Kind: domain.BlockPicture,
		Picture: &domain.Picture{
			Name:     filepath.Base(path),
			Format:   format,
			Data:     data,
			WidthPx:  cfg.Width,
			HeightPx: cfg.Height,
			WidthIn:  widthIn,
		},
	})
	return nil
}

// AddPageBreak appends a hard page break.
func (b *Builder) AddPageBreak() {
	b.doc.Blocks = append(b.doc.Blocks, domain.Block{Kind: domain.BlockPageBreak})
}

// Render serializes the document in format into memory.
func (b *Builder) Render(ctx context.Context, format string) ([]byte, error) {
	w, err := render.ForFormat(format, b.pdf)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := w.Write(ctx, &buf, &b.doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to path in the format implied by its extension.
// Nothing is written if rendering fails.
func (b *Builder) Save(ctx context.Context, path string) error {
	format, err := render.FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := b.Render(ctx, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	logging.Debug("Document saved", "path", path, "format", format, "bytes", len(data), "blocks", len(b.doc.Blocks))
	return nil
}

// Paragraph is a handle on an appended paragraph.
type Paragraph struct {
	b   *Builder
	idx int
}

func (p *Paragraph) block() *domain.Block {
	return &p.b.doc.Blocks[p.idx]
}

// AddRun appends a formatted run.
func (p *Paragraph) AddRun(r domain.Run) *Paragraph {
	blk := p.block()
	blk.Runs = append(blk.Runs, r)
	return p
}

// SetAlignment sets the horizontal alignment.
func (p *Paragraph) SetAlignment(a domain.Alignment) *Paragraph {
	p.block().Align = a
	return p
}
