// Package imaging resizes post cover images into responsive JPEG variants.
package imaging

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

const jpegQuality = 80

// DefaultWidths are the variant widths generated for a cover image.
var DefaultWidths = []int{2048, 1280, 1024, 768, 512, 256}

// Source is one responsive variant of a cover image.
type Source struct {
	Width int    `json:"width"`
	URL   string `json:"url"`
}

// Picture describes the responsive variants available for a post cover.
type Picture struct {
	Src     string   `json:"src"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Sources []Source `json:"sources"`
}

// VariantURL returns the site-relative URL of the width variant of slug's cover.
func VariantURL(slug string, width int) string {
	return "/blog/" + slug + "/cover/" + strconv.Itoa(width) + ".jpg"
}

// NewPicture builds the variant list for a source image of size cfg. Widths
// larger than the source are dropped; if none remain the source width is used.
func NewPicture(slug string, cfg image.Config, widths []int) *Picture {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(widths))
	var kept []int
	for _, w := range widths {
		if w <= 0 || w > cfg.Width {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		kept = []int{cfg.Width}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(kept)))

	p := &Picture{
		Width:  kept[0],
		Height: scaledHeight(cfg.Width, cfg.Height, kept[0]),
	}
	for _, w := range kept {
		p.Sources = append(p.Sources, Source{Width: w, URL: VariantURL(slug, w)})
	}
	p.Src = p.Sources[0].URL
	return p
}

// Has reports whether width is one of the picture's variants.
func (p *Picture) Has(width int) bool {
	if p == nil {
		return false
	}
	for _, s := range p.Sources {
		if s.Width == width {
			return true
		}
	}
	return false
}

// Srcset formats the variants for an <img srcset> attribute.
func (p *Picture) Srcset() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, len(p.Sources))
	for _, s := range p.Sources {
		parts = append(parts, s.URL+" "+strconv.Itoa(s.Width)+"w")
	}
	return strings.Join(parts, ", ")
}

// Decode reads a JPEG, PNG or GIF image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DecodeConfig reads only the image header.
func DecodeConfig(r io.Reader) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("decode image config: %w", err)
	}
	return cfg, nil
}

// Resize scales img down to width, keeping the aspect ratio. Images already
// narrower than width are returned unchanged.
func Resize(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if width <= 0 || w <= width {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, scaledHeight(w, h, width)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// Fill scales and center-crops img so that it covers a w×h canvas.
func Fill(img image.Image, w, h int) image.Image {
	src := img.Bounds()
	sw, sh := src.Dx(), src.Dy()
	crop := src
	if sw*h > sh*w {
		cw := sh * w / h
		crop.Min.X += (sw - cw) / 2
		crop.Max.X = crop.Min.X + cw
	} else {
		ch := sw * h / w
		crop.Min.Y += (sh - ch) / 2
		crop.Max.Y = crop.Min.Y + ch
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}

// EncodeJPEG writes img as a JPEG.
func EncodeJPEG(w io.Writer, img image.Image) error {
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

func scaledHeight(w, h, width int) int {
	if w == 0 {
		return 0
	}
	nh := h * width / w
	if nh < 1 {
		nh = 1
	}
	return nh
}
