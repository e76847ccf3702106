package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"strings"

	"thesisgen/internal/domain"
)

// HTML writes a standalone page: images are inlined as data URIs and page
// breaks become CSS breaks, so the page prints the same way it displays.
type HTML struct{}

func (HTML) Write(_ context.Context, w io.Writer, doc *domain.Document) error {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(doc.Title))
	fmt.Fprintf(&b, `<style>
body { font-family: %q, serif; font-size: %gpt; line-height: 1.15; }
h1.title { font-size: 26pt; font-weight: normal; }
p { margin: 0 0 8pt 0; }
p.center { text-align: center; }
p.left { text-align: left; }
p.right { text-align: right; }
p.justify { text-align: justify; }
p.picture img { display: block; }
.page-break { break-after: page; page-break-after: always; }
</style>
</head>
<body>
`, doc.Style.FontName, doc.Style.FontSizePt)

	for i := range doc.Blocks {
		blk := &doc.Blocks[i]
		switch blk.Kind {
		case domain.BlockHeading:
			tag, class := "h1", ""
			switch {
			case blk.Level == 0:
				class = ` class="title"`
			case blk.Level <= 6:
				tag = fmt.Sprintf("h%d", blk.Level)
			default:
				tag = "h6"
			}
			fmt.Fprintf(&b, "<%s%s>", tag, class)
			writeRuns(&b, blk.Runs)
			fmt.Fprintf(&b, "</%s>\n", tag)
		case domain.BlockParagraph:
			if c := alignClass(blk.Align); c != "" {
				fmt.Fprintf(&b, `<p class="%s">`, c)
			} else {
				b.WriteString("<p>")
			}
			if len(blk.Runs) == 0 || blk.Text() == "" {
				b.WriteString("<br>")
			} else {
				writeRuns(&b, blk.Runs)
			}
			b.WriteString("</p>\n")
		case domain.BlockPicture:
			p := blk.Picture
			if p == nil {
				continue
			}
			fmt.Fprintf(&b, `<p class="picture"><img src="data:image/%s;base64,%s" alt="%s" style="width: %.2fin; height: %.2fin;"></p>`+"\n",
				mediaExt(p.Format), base64.StdEncoding.EncodeToString(p.Data), html.EscapeString(p.Name), p.WidthIn, p.HeightIn())
		case domain.BlockPageBreak:
			b.WriteString("<div class=\"page-break\"></div>\n")
		}
	}
	b.WriteString("</body>\n</html>\n")

	_, err := w.Write(b.Bytes())
	return err
}

func alignClass(a domain.Alignment) string {
	switch a {
	case domain.AlignLeft:
		return "left"
	case domain.AlignCenter:
		return "center"
	case domain.AlignRight:
		return "right"
	case domain.AlignJustify:
		return "justify"
	}
	return ""
}

func writeRuns(b *bytes.Buffer, runs []domain.Run) {
	for _, r := range runs {
		text := strings.ReplaceAll(html.EscapeString(r.Text), "\n", "<br>")
		if r.Bold {
			text = "<strong>" + text + "</strong>"
		}
		if r.Italic {
			text = "<em>" + text + "</em>"
		}
		b.WriteString(text)
	}
}

// mediaExt is the file extension and MIME subtype for a decoded image format.
func mediaExt(format string) string {
	switch format {
	case "", "jpg":
		return "jpeg"
	}
	return format
}
