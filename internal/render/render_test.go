package render

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thesisgen/internal/domain"
)

func sampleDoc() *domain.Document {
	return &domain.Document{
		Title: "Analisis & Perbandingan",
		Style: domain.Style{FontName: "Times New Roman", FontSizePt: 12},
		Blocks: []domain.Block{
			{Kind: domain.BlockParagraph, Runs: []domain.Run{{Text: "HALAMAN JUDUL"}}},
			{Kind: domain.BlockPageBreak},
			{Kind: domain.BlockHeading, Level: 1, Runs: []domain.Run{{Text: "BAB I – PENDAHULUAN"}}},
			{Kind: domain.BlockParagraph, Runs: []domain.Run{{Text: "1. Overshoot\n2. Settling <time>"}}},
			{Kind: domain.BlockPicture, Picture: &domain.Picture{Name: "gambar1_iot.png", Format: "png", Data: []byte("PNGDATA"), WidthPx: 600, HeightPx: 300, WidthIn: 5}},
			{Kind: domain.BlockParagraph, Align: domain.AlignCenter, Runs: []domain.Run{{Text: "Gambar 1. Arsitektur", Italic: true}}},
			{Kind: domain.BlockParagraph},
			{Kind: domain.BlockHeading, Level: 0, Runs: []domain.Run{{Text: "Title"}}},
		},
	}
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = body
	}
	return out
}

// wellFormed decodes every token so malformed XML fails the test.
func wellFormed(t *testing.T, name string, body []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		require.NoError(t, err, name)
	}
}

func TestDOCX_PackageLayout(t *testing.T) {
	doc := sampleDoc()
	img := tinyPNG(t)
	doc.Blocks[4].Picture.Data = img

	var buf bytes.Buffer
	require.NoError(t, DOCX{}.Write(context.Background(), &buf, doc))

	parts := readZip(t, buf.Bytes())
	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"word/document.xml",
		"word/media/image1.png",
	} {
		require.Contains(t, parts, name)
		if strings.HasSuffix(name, ".xml") || strings.HasSuffix(name, ".rels") {
			wellFormed(t, name, parts[name])
		}
	}
	assert.Equal(t, img, parts["word/media/image1.png"])
	assert.Contains(t, string(parts["[Content_Types].xml"]), "image/png")
	assert.Contains(t, string(parts["word/_rels/document.xml.rels"]), "media/image1.png")
	assert.Contains(t, string(parts["word/styles.xml"]), "Heading1")
}

func TestDOCX_DocumentBody(t *testing.T) {
	doc := sampleDoc()
	doc.Blocks[4].Picture.Data = tinyPNG(t)

	var buf bytes.Buffer
	require.NoError(t, DOCX{}.Write(context.Background(), &buf, doc))
	body := string(readZip(t, buf.Bytes())["word/document.xml"])

	assert.Contains(t, body, `"page"`)
	assert.Contains(t, body, `"Heading1"`)
	assert.Contains(t, body, `"Title"`)
	assert.Contains(t, body, "1. Overshoot")
	assert.Contains(t, body, "2. Settling &lt;time&gt;")
	assert.Contains(t, body, `"center"`)
	assert.Contains(t, body, "<w:i")
	// 12pt in half-points
	assert.Contains(t, body, `"24"`)
	// 5in x 2.5in in EMUs
	assert.Contains(t, body, `"4572000"`)
	assert.Contains(t, body, `"2286000"`)

	// order is preserved
	assert.Less(t, strings.Index(body, "HALAMAN JUDUL"), strings.Index(body, `"page"`))
	assert.Less(t, strings.Index(body, `"page"`), strings.Index(body, "PENDAHULUAN"))
	assert.Less(t, strings.Index(body, "1. Overshoot"), strings.Index(body, "2. Settling"))
}

func TestDOCX_JPEGMediaExtension(t *testing.T) {
	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, image.NewGray(image.Rect(0, 0, 2, 2)), nil))
	pic := func(name string) domain.Block {
		return domain.Block{Kind: domain.BlockPicture, Picture: &domain.Picture{
			Name: name, Format: "jpeg", Data: jpg.Bytes(), WidthPx: 2, HeightPx: 2, WidthIn: 1,
		}}
	}
	doc := &domain.Document{Blocks: []domain.Block{pic("a.jpg"), pic("b.jpg")}}

	var buf bytes.Buffer
	require.NoError(t, DOCX{}.Write(context.Background(), &buf, doc))
	parts := readZip(t, buf.Bytes())
	assert.Contains(t, parts, "word/media/image1.jpeg")
	assert.Contains(t, parts, "word/media/image2.jpeg")
}

func TestDOCX_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := DOCX{}.Write(ctx, &bytes.Buffer{}, sampleDoc())
	assert.ErrorIs(t, err, context.Canceled)
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, image.NewGray(image.Rect(0, 0, 6, 3))))
	return b.Bytes()
}

func TestHTML_Rendition(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML{}.Write(context.Background(), &buf, sampleDoc()))
	out := buf.String()

	assert.Contains(t, out, "<title>Analisis &amp; Perbandingan</title>")
	assert.Contains(t, out, `font-family: "Times New Roman", serif; font-size: 12pt;`)
	assert.Contains(t, out, `<div class="page-break"></div>`)
	assert.Contains(t, out, "<h1>BAB I – PENDAHULUAN</h1>")
	assert.Contains(t, out, `<h1 class="title">Title</h1>`)
	assert.Contains(t, out, "1. Overshoot<br>2. Settling &lt;time&gt;")
	assert.Contains(t, out, `<p class="center"><em>Gambar 1. Arsitektur</em></p>`)
	assert.Contains(t, out, `src="data:image/png;base64,UE5HREFUQQ=="`)
	assert.Contains(t, out, "width: 5.00in; height: 2.50in;")
	assert.Contains(t, out, "<p><br></p>")
}

type fakeConverter struct {
	got []byte
	err error
}

func (f *fakeConverter) ConvertHTML(_ context.Context, html []byte) ([]byte, error) {
	f.got = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

func TestPDF_UsesHTMLRendition(t *testing.T) {
	conv := &fakeConverter{}
	var buf bytes.Buffer
	require.NoError(t, PDF{Converter: conv}.Write(context.Background(), &buf, sampleDoc()))
	assert.Equal(t, "%PDF-1.7 fake", buf.String())
	assert.Contains(t, string(conv.got), "<!DOCTYPE html>")

	conv.err = errors.New("target closed")
	err := PDF{Converter: conv}.Write(context.Background(), &bytes.Buffer{}, sampleDoc())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target closed")

	err = PDF{}.Write(context.Background(), &bytes.Buffer{}, sampleDoc())
	assert.ErrorIs(t, err, domain.ErrPDFUnavailable)
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want Writer
		err  error
	}{
		{path: "SkripsiBelumFix.docx", want: DOCX{}},
		{path: "out/preview.HTML", want: HTML{}},
		{path: "index.htm", want: HTML{}},
		{path: "thesis.pdf", err: domain.ErrPDFUnavailable},
		{path: "thesis.odt", err: domain.ErrUnsupportedFormat},
		{path: "noext", err: domain.ErrUnsupportedFormat},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got, err := ForPath(tc.path, nil)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	w, err := ForPath("thesis.pdf", &fakeConverter{})
	require.NoError(t, err)
	assert.IsType(t, PDF{}, w)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType(FormatPDF))
	assert.Contains(t, ContentType(FormatDOCX), "wordprocessingml")
	assert.Equal(t, "application/octet-stream", ContentType("odt"))
}
