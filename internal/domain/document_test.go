package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPictureHeightKeepsAspectRatio(t *testing.T) {
	p := &Picture{WidthPx: 600, HeightPx: 300, WidthIn: 5}
	assert.InDelta(t, 2.5, p.HeightIn(), 1e-9)

	assert.Zero(t, (&Picture{WidthIn: 5}).HeightIn())
}

func TestBlockText(t *testing.T) {
	b := Block{Runs: []Run{{Text: "Gambar "}, {Text: "1.", Italic: true}}}
	assert.Equal(t, "Gambar 1.", b.Text())
}

func TestFingerprint(t *testing.T) {
	base := func() *Document {
		return &Document{
			Style: Style{FontName: "Times New Roman", FontSizePt: 12},
			Blocks: []Block{
				{Kind: BlockHeading, Level: 1, Runs: []Run{{Text: "ABSTRAK"}}},
				{Kind: BlockPicture, Picture: &Picture{Name: "a.png", Format: "png", Data: []byte{1, 2, 3}, WidthIn: 5}},
			},
		}
	}

	a, b := base(), base()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Blocks[0].Runs[0].Italic = true
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c := base()
	c.Blocks[1].Picture.Data = []byte{1, 2, 4}
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d := base()
	d.Blocks[0].Runs[0].Text = "ABSTRA"
	d.Blocks = append(d.Blocks[:1], Block{Kind: BlockParagraph, Runs: []Run{{Text: "K"}}}, d.Blocks[1])
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}

func TestBlockKindString(t *testing.T) {
	assert.Equal(t, "heading", BlockHeading.String())
	assert.Equal(t, "page_break", BlockPageBreak.String())
	assert.Equal(t, "unknown", BlockKind(42).String())
}
