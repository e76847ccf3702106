package render

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/common/units"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/stypes"

	"thesisgen/internal/domain"
)

// DOCX writes an Office Open XML word-processing package.
type DOCX struct{}

func (DOCX) Write(ctx context.Context, w io.Writer, doc *domain.Document) error {
	rd, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("docx: new document: %w", err)
	}

	// godocx reads pictures from disk
	mediaDir, err := os.MkdirTemp("", "thesisgen-media-")
	if err != nil {
		return fmt.Errorf("docx: media dir: %w", err)
	}
	defer os.RemoveAll(mediaDir)

	size := uint(math.Round(doc.Style.FontSizePt))
	pics := 0
	for i := range doc.Blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		blk := &doc.Blocks[i]
		switch blk.Kind {
		case domain.BlockHeading:
			if _, err := rd.AddHeading(blk.Text(), uint(blk.Level)); err != nil {
				return fmt.Errorf("docx: heading %d: %w", blk.Level, err)
			}
		case domain.BlockParagraph:
			if err := addParagraph(rd, blk, size); err != nil {
				return err
			}
		case domain.BlockPicture:
			if blk.Picture == nil {
				continue
			}
			pics++
			if err := addPicture(rd, mediaDir, pics, blk.Picture); err != nil {
				return err
			}
		case domain.BlockPageBreak:
			rd.AddPageBreak()
		}
	}

	if err := rd.Write(w); err != nil {
		return fmt.Errorf("docx: write package: %w", err)
	}
	return nil
}

func addParagraph(rd *docx.RootDoc, blk *domain.Block, size uint) error {
	p := rd.AddEmptyParagraph()
	if jc, ok := justification(blk.Align); ok {
		p.Justification(jc)
	}
	for _, r := range blk.Runs {
		lines := strings.Split(r.Text, "\n")
		for j, line := range lines {
			run := p.AddText(line)
			if r.Bold {
				run.Bold(true)
			}
			if r.Italic {
				run.Italic(true)
			}
			if size > 0 {
				run.Size(uint64(size))
			}
			if j < len(lines)-1 {
				run.AddBreak(nil)
			}
		}
	}
	return nil
}

// addPicture stages the image bytes as imageN.<ext> and embeds them at
// the picture's display size.
func addPicture(rd *docx.RootDoc, dir string, n int, pic *domain.Picture) error {
	path := filepath.Join(dir, fmt.Sprintf("image%d.%s", n, mediaExt(pic.Format)))
	if err := os.WriteFile(path, pic.Data, 0o600); err != nil {
		return fmt.Errorf("docx: stage %s: %w", pic.Name, err)
	}
	if _, err := rd.AddPicture(path, units.Inch(pic.WidthIn), units.Inch(pic.HeightIn())); err != nil {
		return fmt.Errorf("docx: picture %s: %w", pic.Name, err)
	}
	return nil
}

func justification(a domain.Alignment) (stypes.Justification, bool) {
	switch a {
	case domain.AlignLeft:
		return stypes.JustificationLeft, true
	case domain.AlignCenter:
		return stypes.JustificationCenter, true
	case domain.AlignRight:
		return stypes.JustificationRight, true
	case domain.AlignJustify:
		return stypes.JustificationBoth, true
	}
	return "", false
}
