package pubstatic

import (
	"bytes"
	"context"
	"errors"
	"image"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubstatic/content"
	"github.com/eringen/pubstatic/imaging"
	"github.com/eringen/pubstatic/og"
)

const (
	mimeSVG  = "image/svg+xml"
	mimePNG  = "image/png"
	mimeJPEG = "image/jpeg"
)

func (a *App) handleOG(c echo.Context) error {
	card, err := a.card(c)
	if err != nil {
		return err
	}
	data, err := og.RenderSVG(card)
	if err != nil {
		return err
	}
	return blob(c, mimeSVG, cacheImmutable, data)
}

func (a *App) handleOGPNG(c echo.Context) error {
	card, err := a.card(c)
	if err != nil {
		return err
	}
	data, err := a.cards.RenderPNG(card)
	if err != nil {
		return err
	}
	return blob(c, mimePNG, cacheImmutable, data)
}

// card builds the preview card of the requested post. A cover that cannot
// be decoded is logged and the card falls back to the plain background.
func (a *App) card(c echo.Context) (og.Card, error) {
	ctx := c.Request().Context()
	doc, err := a.Posts.Get(ctx, slugParam(c))
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return og.Card{}, echo.ErrNotFound
		}
		return og.Card{}, err
	}
	card := og.Card{
		SiteTitle: a.Config.Name,
		Host:      a.host(c),
		Title:     doc.Title,
		Logo:      a.logo,
	}
	if doc.CoverImage != "" {
		cover, err := a.decodeCover(ctx, doc.Slug, doc.CoverImage)
		if err != nil {
			a.Logger.Warnf("og card %s: %v", doc.Slug, err)
		} else {
			card.Cover = cover
		}
	}
	return card, nil
}

// handleCover serves one responsive variant of a post cover. Only widths
// listed in the post's enhanced image exist.
func (a *App) handleCover(c echo.Context) error {
	ctx := c.Request().Context()
	width, err := strconv.Atoi(strings.TrimSuffix(c.Param("width"), ".jpg"))
	if err != nil {
		return echo.ErrNotFound
	}
	doc, err := a.Posts.Get(ctx, slugParam(c))
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	if !doc.EnhancedImage.Has(width) {
		return echo.ErrNotFound
	}
	img, err := a.decodeCover(ctx, doc.Slug, doc.CoverImage)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := imaging.EncodeJPEG(&buf, imaging.Resize(img, width)); err != nil {
		return err
	}
	return blob(c, mimeJPEG, cacheImmutable, buf.Bytes())
}

func (a *App) decodeCover(ctx context.Context, slug, name string) (image.Image, error) {
	rc, err := a.repo.OpenAsset(ctx, slug, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return imaging.Decode(rc)
}

// host is the host name shown on preview cards: the configured site host,
// or the request host when the site URL has none.
func (a *App) host(c echo.Context) string {
	if u, err := url.Parse(a.Config.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return c.Request().Host
}
