// Package markdown renders post bodies to HTML as templ components.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Renderer converts markdown with GitHub flavoured extensions, footnotes and
// heading anchors. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer. Raw HTML in the source is passed through; link
// destinations are still restricted to safe schemes.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
				parser.WithASTTransformers(util.Prioritized(&linkTransformer{}, 100)),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
}

// Convert renders src to HTML.
func (r *Renderer) Convert(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}
	return buf.Bytes(), nil
}

// Component returns a templ.Component that renders src as HTML.
func (r *Renderer) Component(src []byte) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := r.Convert(src)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	})
}

// linkTransformer opens external links in a new tab, neutralises unsafe
// destinations and marks every image but the first for lazy loading.
type linkTransformer struct{}

func (t *linkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	images := 0
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			dest := string(node.Destination)
			if !SafeURL(dest) {
				node.Destination = []byte("#")
				return ast.WalkContinue, nil
			}
			if isExternal(dest) {
				node.SetAttributeString("target", []byte("_blank"))
				node.SetAttributeString("rel", []byte("noopener noreferrer"))
			}
		case *ast.AutoLink:
			if isExternal(string(node.URL(source))) {
				node.SetAttributeString("target", []byte("_blank"))
				node.SetAttributeString("rel", []byte("noopener noreferrer"))
			}
		case *ast.Image:
			if !SafeURL(string(node.Destination)) {
				node.Destination = nil
			}
			images++
			if images > 1 {
				node.SetAttributeString("loading", []byte("lazy"))
			}
			node.SetAttributeString("decoding", []byte("async"))
		}
		return ast.WalkContinue, nil
	})
}

// SafeURL reports whether raw is a relative reference or uses one of the
// http, https, mailto or tel schemes.
func SafeURL(raw string) bool {
	val := strings.TrimSpace(raw)
	if val == "" {
		return false
	}
	u, err := url.Parse(val)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return true
	default:
		return false
	}
}

func isExternal(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return (s == "http" || s == "https") && u.Host != ""
}
