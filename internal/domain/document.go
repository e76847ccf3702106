package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// BlockKind identifies what a Block inserts into the flow.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockPicture
	BlockPageBreak
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	case BlockPicture:
		return "picture"
	case BlockPageBreak:
		return "page_break"
	}
	return "unknown"
}

// Alignment is the horizontal alignment of a paragraph.
type Alignment int

const (
	AlignDefault Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
	AlignJustify
)

// Run is a span of text sharing character formatting.
type Run struct {
	Text   string
	Italic bool
	Bold   bool
}

// Picture is an embedded raster scaled to WidthIn; height keeps the aspect ratio.
type Picture struct {
	Name     string
	Format   string // png, jpeg, gif, ...
	Data     []byte
	WidthPx  int
	HeightPx int
	WidthIn  float64
}

// HeightIn is the display height implied by WidthIn and the pixel aspect ratio.
func (p *Picture) HeightIn() float64 {
	if p.WidthPx == 0 {
		return 0
	}
	return p.WidthIn * float64(p.HeightPx) / float64(p.WidthPx)
}

// Block is one insertion in document order. Level applies to headings,
// Runs and Align to headings and paragraphs, Picture to pictures.
type Block struct {
	Kind    BlockKind
	Level   int
	Runs    []Run
	Align   Alignment
	Picture *Picture
}

// Text joins the runs of a block.
func (b *Block) Text() string {
	n := 0
	for _, r := range b.Runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range b.Runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}

// Style is the base ("Normal") style of a document.
type Style struct {
	FontName   string
	FontSizePt float64
}

// Document is an ordered list of blocks under one base style. Title is
// metadata only; it is not rendered as content.
type Document struct {
	Title  string
	Style  Style
	Blocks []Block
}

// Fingerprint is a stable hex digest of the whole content, pictures included.
func (d *Document) Fingerprint() string {
	h := sha256.New()
	var num [8]byte
	putInt := func(v int64) {
		binary.BigEndian.PutUint64(num[:], uint64(v))
		h.Write(num[:])
	}
	putStr := func(s string) {
		putInt(int64(len(s)))
		h.Write([]byte(s))
	}

	putStr(d.Title)
	putStr(d.Style.FontName)
	putInt(int64(math.Float64bits(d.Style.FontSizePt)))
	for _, b := range d.Blocks {
		putInt(int64(b.Kind))
		putInt(int64(b.Level))
		putInt(int64(b.Align))
		putInt(int64(len(b.Runs)))
		for _, r := range b.Runs {
			putStr(r.Text)
			flags := int64(0)
			if r.Italic {
				flags |= 1
			}
			if r.Bold {
				flags |= 2
			}
			putInt(flags)
		}
		if p := b.Picture; p != nil {
			putStr(p.Name)
			putStr(p.Format)
			putInt(int64(math.Float64bits(p.WidthIn)))
			putInt(int64(len(p.Data)))
			h.Write(p.Data)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
