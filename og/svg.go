package og

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/eringen/pubstatic/imaging"
)

// svgCharWidth approximates the advance of a glyph as a fraction of the font
// size, which is enough to wrap titles without font metrics.
const svgCharWidth = 0.56

var svgTemplate = template.Must(template.New("card").Funcs(template.FuncMap{
	"xml": xmlEscape,
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="{{.W}}" height="{{.H}}" viewBox="0 0 {{.W}} {{.H}}">
<defs><linearGradient id="shade" x1="0" y1="0" x2="0" y2="1"><stop offset="0" stop-color="#000" stop-opacity="0.53"/><stop offset="1" stop-color="#000" stop-opacity="0.8"/></linearGradient></defs>
{{if .Cover}}<image href="data:image/jpeg;base64,{{.Cover}}" x="0" y="0" width="{{.W}}" height="{{.H}}" preserveAspectRatio="xMidYMid slice"/>
<rect width="{{.W}}" height="{{.H}}" fill="url(#shade)"/>
{{else}}<rect width="{{.W}}" height="{{.H}}" fill="#1d232a"/>
{{end}}{{if .Logo}}<image href="data:image/svg+xml;base64,{{.Logo}}" x="{{.Pad}}" y="{{.Pad}}" width="{{.LogoSize}}" height="{{.LogoSize}}"/>
{{end}}<text x="{{.SiteX}}" y="{{.SiteY}}" fill="#00ffbc" font-family="sans-serif" font-size="{{.SiteSize}}" font-weight="800">{{xml .SiteTitle}}</text>
{{if .Host}}<rect x="{{.BadgeX}}" y="{{.Pad}}" width="{{.BadgeW}}" height="{{.BadgeH}}" rx="8" fill="#000" fill-opacity="0.5"/>
<text x="{{.BadgeTextX}}" y="{{.BadgeTextY}}" fill="#fff" font-family="sans-serif" font-size="{{.HostSize}}">{{xml .Host}}</text>
{{end}}<text fill="#fff" font-family="sans-serif" font-size="{{.TitleSize}}" font-weight="600">{{range .Lines}}<tspan x="{{$.Pad}}" y="{{.Y}}">{{xml .Text}}</tspan>{{end}}</text>
<rect x="{{.Pad}}" y="{{.BarY}}" width="{{.W}}" height="{{.BarH}}" fill="#00ffbc"/>
</svg>
`))

type svgLine struct {
	Y    int
	Text string
}

type svgData struct {
	W, H, Pad              int
	Cover, Logo            string
	LogoSize               int
	SiteTitle              string
	SiteX, SiteY, SiteSize int
	Host                   string
	BadgeX, BadgeW, BadgeH int
	BadgeTextX, BadgeTextY int
	HostSize               int
	TitleSize              int
	Lines                  []svgLine
	BarY, BarH             int
}

// RenderSVG lays the card out as an SVG document. A cover image is embedded
// as a JPEG data URI so the document is self-contained.
func RenderSVG(card Card) ([]byte, error) {
	d := svgData{
		W: Width, H: Height, Pad: padding,
		LogoSize:  logoSize,
		SiteTitle: card.SiteTitle,
		SiteX:     padding,
		SiteY:     padding + logoSize/2 + siteTitleSize*7/20,
		SiteSize:  siteTitleSize,
		Host:      card.Host,
		HostSize:  hostSize,
		TitleSize: titleSize,
		BarY:      Height - padding - barHeight,
		BarH:      barHeight,
	}

	if card.Cover != nil {
		var buf bytes.Buffer
		if err := imaging.EncodeJPEG(&buf, imaging.Fill(card.Cover, Width, Height)); err != nil {
			return nil, fmt.Errorf("og cover: %w", err)
		}
		d.Cover = base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	if len(card.Logo) > 0 {
		d.Logo = base64.StdEncoding.EncodeToString(card.Logo)
		d.SiteX = padding + logoSize + 16
	}

	if card.Host != "" {
		textW := int(float64(utf8.RuneCountInString(card.Host)*hostSize) * svgCharWidth)
		d.BadgeW = textW + 16
		d.BadgeH = hostSize + 16
		d.BadgeX = Width - padding - d.BadgeW
		d.BadgeTextX = d.BadgeX + 8
		d.BadgeTextY = padding + 8 + hostSize*4/5
	}

	maxW := float64(Width - 2*padding)
	lines := wrap(card.Title, maxTitleLines, func(s string) bool {
		return float64(utf8.RuneCountInString(s)*titleSize)*svgCharWidth <= maxW
	})
	lineH := titleSize * 6 / 5
	baseline := Height - bottomPadding - (len(lines)-1)*lineH
	for i, l := range lines {
		d.Lines = append(d.Lines, svgLine{Y: baseline + i*lineH, Text: l})
	}

	var out bytes.Buffer
	if err := svgTemplate.Execute(&out, d); err != nil {
		return nil, fmt.Errorf("og svg: %w", err)
	}
	return out.Bytes(), nil
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
