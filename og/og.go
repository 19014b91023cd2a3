// Package og renders the 1200x630 social preview card of a post as SVG or PNG.
package og

import (
	"image"
	"image/color"
	"strings"
)

// Card dimensions and layout, in pixels.
const (
	Width  = 1200
	Height = 630

	padding       = 64
	bottomPadding = 112
	barHeight     = 8
	logoSize      = 75
	siteTitleSize = 60
	hostSize      = 30
	titleSize     = 72
	maxTitleLines = 4
)

var (
	accent     = color.RGBA{0x00, 0xff, 0xbc, 0xff}
	background = color.RGBA{0x1d, 0x23, 0x2a, 0xff}
	badge      = color.RGBA{0x00, 0x00, 0x00, 0x80}
)

// Card is the content of a preview image.
type Card struct {
	SiteTitle string
	Host      string
	Title     string
	// Cover is drawn behind a dark gradient when set.
	Cover image.Image
	// Logo is an optional SVG document shown next to the site title.
	Logo []byte
}

// wrap breaks text into lines for which fits reports true, dropping words
// past maxLines and marking the cut with an ellipsis.
func wrap(text string, maxLines int, fits func(string) bool) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line == "" || fits(candidate) {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		last := lines[maxLines-1]
		for last != "" && !fits(last+"…") {
			i := strings.LastIndexByte(last, ' ')
			if i < 0 {
				break
			}
			last = last[:i]
		}
		lines[maxLines-1] = last + "…"
	}
	return lines
}
