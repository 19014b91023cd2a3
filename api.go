package pubstatic

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubstatic/posts"
)

func (a *App) handleAPIPosts(c echo.Context) error {
	res, err := a.Posts.Fetch(c.Request().Context(), posts.Query{Limit: posts.DefaultLimit})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.Posts)
}

func (a *App) handleAPICount(c echo.Context) error {
	n, err := a.Posts.Count(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

// handleAPIPage returns page n of the post list. Pages past the end are not
// found, except page 1 which is an empty array for an empty blog.
func (a *App) handleAPIPage(c echo.Context) error {
	page, ok := parsePage(c.Param("page"))
	if !ok {
		return echo.ErrNotFound
	}
	perPage := a.Posts.PageSize()
	res, err := a.Posts.Fetch(c.Request().Context(), posts.Query{
		Offset: (page - 1) * perPage,
		Limit:  perPage,
	})
	if err != nil {
		return err
	}
	if page > 1 && len(res.Posts) == 0 {
		return echo.ErrNotFound
	}
	return c.JSON(http.StatusOK, res.Posts)
}
