package pubstatic

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Cache policies for generated responses.
const (
	cacheFeed      = "max-age=0, s-max-age=600"
	cacheImmutable = "public, immutable, no-transform, max-age=31536000"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
// The component renders into a buffer first so a failing template still
// leaves the response uncommitted for the error handler.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}

// blob writes a generated document with its cache policy.
func blob(c echo.Context, contentType, cacheControl string, data []byte) error {
	c.Response().Header().Set("Cache-Control", cacheControl)
	return c.Blob(http.StatusOK, contentType, data)
}
