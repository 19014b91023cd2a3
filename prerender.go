package pubstatic

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubstatic/imaging"
	"github.com/eringen/pubstatic/posts"
	"github.com/eringen/pubstatic/views"
)

type prerenderKey struct{}

func withPrerender(ctx context.Context) context.Context {
	return context.WithValue(ctx, prerenderKey{}, true)
}

func isPrerender(ctx context.Context) bool {
	v, _ := ctx.Value(prerenderKey{}).(bool)
	return v
}

var redirectStub = template.Must(template.New("redirect").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Redirecting</title>
<link rel="canonical" href="{{.}}">
<meta http-equiv="refresh" content="0; url={{.}}">
</head><body><a href="{{.}}">{{.}}</a></body></html>
`))

// Routes lists every path the site answers, in a stable order: listings and
// their redirects, categories, posts with their images, feeds and the API.
func (a *App) Routes(ctx context.Context) ([]string, error) {
	all, err := a.Posts.Fetch(ctx, posts.Query{Limit: posts.Unlimited})
	if err != nil {
		return nil, err
	}
	idx, err := a.Posts.Categories(ctx, true)
	if err != nil {
		return nil, err
	}
	perPage := a.Posts.PageSize()

	routes := []string{"/", "/favicon.svg", "/public/style.css", "/blog", "/blog/category"}

	pages := views.NewPagination(1, all.Total, perPage, "/blog").Pages
	for n := 1; n <= pages; n++ {
		routes = append(routes, "/blog/page/"+strconv.Itoa(n))
	}

	for _, cc := range idx.Entries() {
		base := views.CategoryURL(cc.Name)
		routes = append(routes, base, base+"/page")
		catPages := views.NewPagination(1, cc.Count, perPage, base).Pages
		for n := 1; n <= catPages; n++ {
			routes = append(routes, base+"/page/"+strconv.Itoa(n))
		}
	}

	for _, p := range all.Posts {
		link := "/blog/" + url.PathEscape(p.Slug)
		routes = append(routes, link, link+"/og", link+"/og.png")
		if p.EnhancedImage != nil {
			for _, s := range p.EnhancedImage.Sources {
				routes = append(routes, imaging.VariantURL(url.PathEscape(p.Slug), s.Width))
			}
		}
	}

	routes = append(routes,
		"/rss.xml", "/api/rss.xml", "/index.xml", "/sitemap.xml",
		"/api/posts.json", "/api/posts/count",
	)
	for n := 1; n <= pages; n++ {
		routes = append(routes, "/api/posts/page/"+strconv.Itoa(n))
	}
	return routes, nil
}

// Prerender writes every route under dir, replacing its previous contents.
// HTML pages become {path}/index.html, redirects become meta-refresh stubs
// and every other response is written at {path}. Any response outside the
// 2xx and 3xx ranges aborts the build.
func (a *App) Prerender(ctx context.Context, dir string) (int, error) {
	if clean := filepath.Clean(dir); clean == "." || clean == string(filepath.Separator) {
		return 0, fmt.Errorf("prerender: refusing to replace %q", dir)
	}
	ctx = withPrerender(ctx)
	routes, err := a.Routes(ctx)
	if err != nil {
		return 0, fmt.Errorf("prerender: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("prerender: clean %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("prerender: create %s: %w", dir, err)
	}
	if dirExists(a.Config.StaticDir) {
		if err := copyDir(a.Config.StaticDir, filepath.Join(dir, "public")); err != nil {
			return 0, fmt.Errorf("prerender: copy static: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.LoadConcurrency)
	for _, route := range routes {
		g.Go(func() error {
			return a.prerenderRoute(gctx, dir, route)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	a.Logger.Infof("prerendered %d routes into %s", len(routes), dir)
	return len(routes), nil
}

func (a *App) prerenderRoute(ctx context.Context, dir, route string) error {
	req := httptest.NewRequest(http.MethodGet, route, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	rel, err := url.PathUnescape(strings.TrimPrefix(route, "/"))
	if err != nil {
		return fmt.Errorf("prerender %s: %w", route, err)
	}
	target := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+rel)))

	switch {
	case rec.Code >= 300 && rec.Code < 400:
		loc := rec.Header().Get("Location")
		if loc == "" {
			return fmt.Errorf("prerender %s: redirect without location", route)
		}
		f, err := create(filepath.Join(target, "index.html"))
		if err != nil {
			return fmt.Errorf("prerender %s: %w", route, err)
		}
		defer f.Close()
		return redirectStub.Execute(f, loc)
	case rec.Code >= 200 && rec.Code < 300:
		mediaType, _, _ := mime.ParseMediaType(rec.Header().Get("Content-Type"))
		if mediaType == "text/html" {
			target = filepath.Join(target, "index.html")
		}
		return writeFile(target, rec.Body.Bytes())
	default:
		return fmt.Errorf("prerender %s: status %d", route, rec.Code)
	}
}

func create(name string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, err
	}
	return os.Create(name)
}

func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(name, data, 0o644)
}

// copyDir recursively copies the contents of src into dst.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return writeFile(out, data)
	})
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
