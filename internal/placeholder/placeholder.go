// Package placeholder rasterizes stand-in figures: a fixed-size canvas with a
// caption centred on it. Files that already exist are never touched.
package placeholder

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"thesisgen/internal/infra/logging"
)

// Canvas size in pixels.
const (
	Width  = 600
	Height = 300
)

var (
	// Background fills the whole canvas (light grey).
	Background = color.NRGBA{R: 240, G: 240, B: 240, A: 255}
	// Foreground is the caption colour (black).
	Foreground = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
)

// Request pairs a destination path with the caption drawn on it.
type Request struct {
	Path string
	Text string
}

// Options configures the face used for captions.
type Options struct {
	FontPath string  // optional TrueType/OpenType file
	FontSize float64 // points at 72 DPI, used with FontPath
}

// Generator renders placeholders with one face.
type Generator struct {
	face font.Face
}

// New returns a Generator using the face from opts. A font that cannot be
// loaded is logged and replaced by the built-in 7x13 face.
func New(opts Options) *Generator {
	if opts.FontPath == "" {
		return &Generator{face: basicfont.Face7x13}
	}
	face, err := loadFace(opts.FontPath, opts.FontSize)
	if err != nil {
		logging.Warn("Placeholder font unavailable, using default face", "path", opts.FontPath, "error", err)
		return &Generator{face: basicfont.Face7x13}
	}
	return &Generator{face: face}
}

// Default returns a Generator with the built-in face.
func Default() *Generator {
	return &Generator{face: basicfont.Face7x13}
}

func loadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	if size <= 0 {
		size = 14
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Origin returns the dot position at which text must be drawn so that its
// bounding box under face is centred on a Width x Height canvas.
func Origin(face font.Face, text string) fixed.Point26_6 {
	bounds, _ := font.BoundString(face, text)
	w := bounds.Max.X - bounds.Min.X
	h := bounds.Max.Y - bounds.Min.Y
	return fixed.Point26_6{
		X: (fixed.I(Width)-w)/2 - bounds.Min.X,
		Y: (fixed.I(Height)-h)/2 - bounds.Min.Y,
	}
}

// Render draws text centred on a fresh canvas. Text wider than the canvas is
// neither wrapped nor scaled; it is clipped at the edges.
func (g *Generator) Render(text string) *image.NRGBA {
	img := imaging.New(Width, Height, Background)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(Foreground),
		Face: g.face,
		Dot:  Origin(g.face, text),
	}
	d.DrawString(text)
	return img
}

// Generate writes the placeholder for text to path unless a file is already
// there. The format follows the extension of path. created reports whether a
// file was written.
func (g *Generator) Generate(text, path string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	if _, err := imaging.FormatFromFilename(path); err != nil {
		return false, fmt.Errorf("placeholder %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := imaging.Save(g.Render(text), path); err != nil {
		return false, fmt.Errorf("save placeholder %s: %w", path, err)
	}
	logging.Debug("Placeholder written", "path", path, "text", text)
	return true, nil
}

// EnsureAll generates every missing placeholder in order and stops at the
// first failure. It returns the number of files written.
func (g *Generator) EnsureAll(reqs []Request) (int, error) {
	created := 0
	for _, r := range reqs {
		ok, err := g.Generate(r.Text, r.Path)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}
