package pubstatic

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubstatic/posts"
	"github.com/eringen/pubstatic/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// handleSitemap lists the blog index, every post and every category page.
func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	res, err := a.Posts.Fetch(ctx, posts.Query{Limit: posts.Unlimited})
	if err != nil {
		return err
	}
	idx, err := a.Posts.Categories(ctx, true)
	if err != nil {
		return err
	}

	base := siteOrigin(a.Config.URL)
	home := sitemapURL{Loc: views.AbsURL(base, "/blog")}
	if len(res.Posts) > 0 {
		home.LastMod = res.Posts[0].Updated().Format(time.DateOnly)
	}
	urls := []sitemapURL{home, {Loc: views.AbsURL(base, "/blog/category")}}
	for _, p := range res.Posts {
		urls = append(urls, sitemapURL{
			Loc:     views.AbsURL(base, p.Link()),
			LastMod: p.Updated().Format(time.DateOnly),
		})
	}
	for _, name := range idx.Names() {
		urls = append(urls, sitemapURL{Loc: views.AbsURL(base, views.CategoryURL(name))})
	}

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
