// Package views holds the default page components. Pages are html/template
// layouts exposed as templ components so they can be swapped for templ views.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"formatDate":    FormatDate,
	"pathEscape":    PathEscape,
	"categoryURL":   CategoryURL,
	"categoryClass": CategoryClass,
}

var pages = map[string]*template.Template{
	"list":       parsePage("list.html"),
	"post":       parsePage("post.html"),
	"categories": parsePage("categories.html"),
	"error":      parsePage("error.html"),
}

func parsePage(name string) *template.Template {
	t := template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	return t.Lookup("layout")
}

// Blog renders a listing page.
func Blog(p ListPage) templ.Component {
	return templ.FromGoHTML(pages["list"], p)
}

type postData struct {
	PostPage
	BodyHTML template.HTML
}

// Post renders a single post. The body component is rendered first so its
// errors abort the page before anything is written.
func Post(p PostPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var body template.HTML
		if p.Body != nil {
			var err error
			if body, err = templ.ToGoHTML(ctx, p.Body); err != nil {
				return fmt.Errorf("render post body: %w", err)
			}
		}
		return templ.FromGoHTML(pages["post"], postData{PostPage: p, BodyHTML: body}).Render(ctx, w)
	})
}

// Categories renders the category index.
func Categories(p CategoriesPage) templ.Component {
	return templ.FromGoHTML(pages["categories"], p)
}

// NotFound renders the 404 page.
func NotFound(site SiteInfo) templ.Component {
	return errorPage(site, http.StatusNotFound, "This page does not exist.")
}

// ServerError renders the 500 page.
func ServerError(site SiteInfo) templ.Component {
	return errorPage(site, http.StatusInternalServerError, "Something went wrong on our side.")
}

func errorPage(site SiteInfo, code int, msg string) templ.Component {
	return templ.FromGoHTML(pages["error"], ErrorPage{
		Site:    site,
		Meta:    PageMeta{Title: http.StatusText(code), OGType: "website", URL: AbsURL(site.URL, "/blog")},
		Code:    code,
		Message: msg,
	})
}
