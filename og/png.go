package og

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/eringen/pubstatic/imaging"
)

// Renderer rasterises cards. Fonts are parsed once; faces are created per
// render so a Renderer is safe for concurrent use.
type Renderer struct {
	bold    *opentype.Font
	regular *opentype.Font
}

// NewRenderer parses the OpenType or TrueType fonts used for headings and
// body text. Nil data falls back to the Go fonts.
func NewRenderer(bold, regular []byte) (*Renderer, error) {
	if len(bold) == 0 {
		bold = gobold.TTF
	}
	if len(regular) == 0 {
		regular = goregular.TTF
	}
	b, err := opentype.Parse(bold)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	r, err := opentype.Parse(regular)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	return &Renderer{bold: b, regular: r}, nil
}

// RenderPNG draws the card and encodes it as PNG. The SVG logo is not
// rasterised; the site title takes its place at the left margin.
func (r *Renderer) RenderPNG(card Card) ([]byte, error) {
	siteFace, err := newFace(r.bold, siteTitleSize)
	if err != nil {
		return nil, err
	}
	defer siteFace.Close()
	hostFace, err := newFace(r.regular, hostSize)
	if err != nil {
		return nil, err
	}
	defer hostFace.Close()
	titleFace, err := newFace(r.bold, titleSize)
	if err != nil {
		return nil, err
	}
	defer titleFace.Close()

	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	if card.Cover != nil {
		draw.Draw(canvas, canvas.Bounds(), imaging.Fill(card.Cover, Width, Height), image.Point{}, draw.Src)
		shade(canvas)
	} else {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	}

	ascent := siteFace.Metrics().Ascent.Ceil()
	drawText(canvas, siteFace, accent, card.SiteTitle, padding, padding+ascent)

	if card.Host != "" {
		textW := font.MeasureString(hostFace, card.Host).Ceil()
		m := hostFace.Metrics()
		boxH := m.Height.Ceil() + 16
		box := image.Rect(Width-padding-textW-16, padding, Width-padding, padding+boxH)
		draw.Draw(canvas, box, image.NewUniform(badge), image.Point{}, draw.Over)
		drawText(canvas, hostFace, color.White, card.Host, box.Min.X+8, padding+8+m.Ascent.Ceil())
	}

	maxW := fixed.I(Width - 2*padding)
	lines := wrap(card.Title, maxTitleLines, func(s string) bool {
		return font.MeasureString(titleFace, s) <= maxW
	})
	lineH := titleSize * 6 / 5
	baseline := Height - bottomPadding - (len(lines)-1)*lineH
	for i, l := range lines {
		drawText(canvas, titleFace, color.White, l, padding, baseline+i*lineH)
	}

	bar := image.Rect(padding, Height-padding-barHeight, Width, Height-padding)
	draw.Draw(canvas, bar, image.NewUniform(accent), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("og font face: %w", err)
	}
	return face, nil
}

func drawText(dst draw.Image, face font.Face, c color.Color, s string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// shade darkens dst with a vertical black gradient, 53% opaque at the top
// and 80% at the bottom.
func shade(dst *image.RGBA) {
	const top, bottom = 0x88, 0xcc
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		a := uint8(top + (bottom-top)*(y-b.Min.Y)/b.Dy())
		row := image.Rect(b.Min.X, y, b.Max.X, y+1)
		draw.Draw(dst, row, image.NewUniform(color.NRGBA{A: a}), image.Point{}, draw.Over)
	}
}
