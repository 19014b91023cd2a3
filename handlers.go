package pubstatic

import (
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubstatic/content"
	"github.com/eringen/pubstatic/posts"
	"github.com/eringen/pubstatic/views"
)

const (
	faviconName  = "favicon.svg"
	relatedLimit = 3
)

func handleHomeRedirect(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/blog")
}

func (a *App) handleBlog(c echo.Context) error {
	return a.renderListing(c, "", 1)
}

func (a *App) handleBlogPage(c echo.Context) error {
	page, ok := parsePage(c.Param("page"))
	if !ok {
		return echo.ErrNotFound
	}
	if page == 1 {
		return c.Redirect(http.StatusMovedPermanently, "/blog")
	}
	return a.renderListing(c, "", page)
}

func (a *App) handleCategory(c echo.Context) error {
	category, ok := categoryParam(c)
	if !ok {
		return echo.ErrNotFound
	}
	return a.renderListing(c, category, 1)
}

func (a *App) handleCategoryPageRedirect(c echo.Context) error {
	category, ok := categoryParam(c)
	if !ok {
		return echo.ErrNotFound
	}
	return c.Redirect(http.StatusMovedPermanently, views.CategoryURL(category))
}

func (a *App) handleCategoryPage(c echo.Context) error {
	category, ok := categoryParam(c)
	if !ok {
		return echo.ErrNotFound
	}
	page, ok := parsePage(c.Param("page"))
	if !ok {
		return echo.ErrNotFound
	}
	if page == 1 {
		return c.Redirect(http.StatusMovedPermanently, views.CategoryURL(category))
	}
	return a.renderListing(c, category, page)
}

// renderListing renders page of the blog index, or of category when set.
// Pages past the end and unknown categories are not found; page 1 of an
// empty blog still renders.
func (a *App) renderListing(c echo.Context, category string, page int) error {
	perPage := a.Posts.PageSize()
	res, err := a.Posts.Fetch(c.Request().Context(), posts.Query{
		Offset:   (page - 1) * perPage,
		Limit:    perPage,
		Category: category,
	})
	if err != nil {
		return err
	}
	if category != "" && res.Total == 0 {
		return echo.ErrNotFound
	}
	if page > 1 && len(res.Posts) == 0 {
		return echo.ErrNotFound
	}

	base, heading, desc := "/blog", "Latest posts", a.Config.Description
	if category != "" {
		base = views.CategoryURL(category)
		heading = "Posts in " + category
		desc = "Posts filed under " + category
	}
	pg := views.NewPagination(page, res.Total, perPage, base)
	site := a.siteInfo()

	title := heading
	if page > 1 {
		title += " (page " + strconv.Itoa(page) + ")"
	}
	meta := views.PageMeta{
		Title:       title,
		Description: desc,
		URL:         views.AbsURL(site.URL, pg.PageURL(page)),
		OGType:      "website",
		JSONLD:      views.WebsiteJsonLD(site),
	}
	return Render(c, a.Views.Blog(views.ListPage{
		Site:       site,
		Meta:       meta,
		Heading:    heading,
		Category:   category,
		Posts:      res.Posts,
		Pagination: pg,
	}))
}

func (a *App) handleCategories(c echo.Context) error {
	idx, err := a.Posts.Categories(c.Request().Context(), true)
	if err != nil {
		return err
	}
	site := a.siteInfo()
	return Render(c, a.Views.Categories(views.CategoriesPage{
		Site: site,
		Meta: views.PageMeta{
			Title:       "Categories",
			Description: "All categories on " + site.Name,
			URL:         views.AbsURL(site.URL, "/blog/category"),
			OGType:      "website",
		},
		Categories: idx.Entries(),
	}))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	doc, err := a.Posts.Get(ctx, slugParam(c))
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	all, err := a.Posts.Fetch(ctx, posts.Query{Limit: posts.Unlimited})
	if err != nil {
		return err
	}

	site := a.siteInfo()
	related := FilterRelatedPosts(doc.Post, all.Posts)
	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}
	return Render(c, a.Views.Post(views.PostPage{
		Site: site,
		Meta: views.PageMeta{
			Title:       doc.Title,
			Description: doc.Excerpt,
			URL:         views.AbsURL(site.URL, doc.Link()),
			OGType:      "article",
			Image:       views.AbsURL(site.URL, doc.Link()+"/og.png"),
			JSONLD:      views.BlogPostingJsonLD(site, doc.Post),
		},
		Post:    doc.Post,
		Body:    a.markdown.Component(doc.Body),
		Related: related,
	}))
}

func (a *App) handleFavicon(c echo.Context) error {
	return a.servePublic(c, faviconName)
}

func (a *App) handlePublic(c echo.Context) error {
	name, ok := pathParam(c, "*")
	if !ok {
		return echo.ErrNotFound
	}
	return a.servePublic(c, name)
}

// servePublic serves name from the static directory, falling back to the
// assets embedded in the binary.
func (a *App) servePublic(c echo.Context, name string) error {
	name = path.Clean("/" + name)[1:]
	if name == "" {
		return echo.ErrNotFound
	}
	if p := a.staticPath(name); fileExists(p) {
		return c.File(p)
	}
	if _, err := fs.Stat(EmbeddedAssets, "embedded/"+name); err == nil {
		return echo.StaticFileHandler("embedded/"+name, EmbeddedAssets)(c)
	}
	return echo.ErrNotFound
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = c.JSON(code, map[string]string{"error": http.StatusText(code)})
		return
	}
	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, code, a.Views.NotFound(a.siteInfo()))
	case code >= 500:
		_ = RenderStatus(c, code, a.Views.ServerError(a.siteInfo()))
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}

// parsePage parses a 1-indexed page number.
func parsePage(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func categoryParam(c echo.Context) (string, bool) {
	category, ok := pathParam(c, "category")
	if !ok || category == "" {
		return "", false
	}
	return category, true
}

// pathParam returns the decoded route param name. Echo matches on the
// decoded path unless the request carries a distinct RawPath, in which case
// params arrive still escaped.
func pathParam(c echo.Context, name string) (string, bool) {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return v, true
	}
	v, err := url.PathUnescape(v)
	if err != nil {
		return "", false
	}
	return v, true
}

// slugParam returns the decoded post slug, or "" when it is malformed.
func slugParam(c echo.Context) string {
	slug, _ := pathParam(c, "slug")
	return slug
}
