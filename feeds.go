package pubstatic

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubstatic/feed"
	"github.com/eringen/pubstatic/posts"
)

func (a *App) handleRSS(c echo.Context) error {
	return a.renderFeed(c, feed.RSS)
}

func (a *App) handleAtom(c echo.Context) error {
	return a.renderFeed(c, feed.Atom)
}

// renderFeed renders every post, newest first, in format. The self link is
// the path the feed was requested on.
func (a *App) renderFeed(c echo.Context, format feed.Format) error {
	res, err := a.Posts.Fetch(c.Request().Context(), posts.Query{Limit: posts.Unlimited})
	if err != nil {
		return err
	}
	ch := feed.Channel{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		Author:      a.Config.Author,
		BaseURL:     siteOrigin(a.Config.URL),
		SelfPath:    c.Request().URL.Path,
		Generated:   time.Now().UTC(),
	}
	data, err := feed.Render(format, ch, res.Posts)
	if err != nil {
		return err
	}
	return blob(c, format.ContentType(), cacheFeed, data)
}
