package pubstatic

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/eringen/pubstatic/content"
)

func testPost(title, date, extra string, categories ...string) string {
	return "---\ntitle: " + title + "\ndate: " + date + "\n" +
		"excerpt: About " + title + "\n" +
		"categories: [" + strings.Join(categories, ", ") + "]\n" +
		extra + "---\n# " + title + "\n\nSome *markdown* body.\n"
}

func testCover(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode cover: %v", err)
	}
	return buf.Bytes()
}

func testFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"posts/january.md": {Data: []byte(testPost("January", "2024-01-01", "", "go"))},
		"posts/february.md": {Data: []byte(testPost("February", "2024-02-01", "",
			"rust", `"Go Lang"`, `"c#"`, `"50%"`))},
		"posts/march.md": {Data: []byte(testPost("March", "2024-03-01",
			"coverImage: cover.png\ncoverAlt: A red square\n", "rust", "go"))},
		"posts/broken.md":        {Data: []byte("---\ntitle: Broken\n---\nno date\n")},
		"posts/march/cover.png":  {Data: testCover(t, 600, 300)},
		"posts/notes/ignored.md": {Data: []byte("not listed")},
	}
}

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func newTestApp(t *testing.T, fsys fstest.MapFS, mutate ...func(*SiteConfig)) *App {
	t.Helper()
	cfg := SiteConfig{
		Name:         "Test Blog",
		URL:          "https://blog.example.com/",
		Description:  "A blog for tests",
		Author:       "Tester",
		PostsPerPage: 2,
		StaticDir:    t.TempDir(),
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	app, err := New(cfg,
		WithLogger(quietLogger()),
		WithRepository(content.NewFSRepository(fsys, "posts")),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if app.limiter != nil {
			app.limiter.Stop()
		}
	})
	return app
}

func get(app *App, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func TestRouteStatus(t *testing.T) {
	app := newTestApp(t, testFS(t))

	tests := []struct {
		path     string
		code     int
		location string
	}{
		{"/", http.StatusFound, "/blog"},
		{"/blog", http.StatusOK, ""},
		{"/blog/", http.StatusMovedPermanently, "/blog"},
		{"/blog/page/1", http.StatusMovedPermanently, "/blog"},
		{"/blog/page/2", http.StatusOK, ""},
		{"/blog/page/3", http.StatusNotFound, ""},
		{"/blog/page/0", http.StatusNotFound, ""},
		{"/blog/page/-1", http.StatusNotFound, ""},
		{"/blog/page/two", http.StatusNotFound, ""},
		{"/blog/category", http.StatusOK, ""},
		{"/blog/category/go", http.StatusOK, ""},
		{"/blog/category/Go", http.StatusNotFound, ""},
		{"/blog/category/missing", http.StatusNotFound, ""},
		{"/blog/category/go/page", http.StatusMovedPermanently, "/blog/category/go"},
		{"/blog/category/go/page/1", http.StatusMovedPermanently, "/blog/category/go"},
		{"/blog/category/go/page/2", http.StatusNotFound, ""},
		{"/blog/category/Go%20Lang", http.StatusOK, ""},
		{"/blog/category/c%23", http.StatusOK, ""},
		{"/blog/category/50%25", http.StatusOK, ""},
		{"/blog/category/50%25/page", http.StatusMovedPermanently, "/blog/category/50%25"},
		{"/blog/category/Go%20Lang/page/1", http.StatusMovedPermanently, "/blog/category/Go%20Lang"},
		{"/blog/category/Go%2520Lang", http.StatusNotFound, ""},
		{"/blog/march", http.StatusOK, ""},
		{"/blog/broken", http.StatusNotFound, ""},
		{"/blog/nope", http.StatusNotFound, ""},
		{"/favicon.svg", http.StatusOK, ""},
		{"/public/style.css", http.StatusOK, ""},
		{"/public/missing.css", http.StatusNotFound, ""},
		{"/sitemap.xml", http.StatusOK, ""},
	}
	for _, tt := range tests {
		rec := get(app, tt.path)
		if rec.Code != tt.code {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.code)
			continue
		}
		if tt.location != "" {
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("GET %s Location = %q, want %q", tt.path, got, tt.location)
			}
		}
	}
}

func TestBlogListing(t *testing.T) {
	app := newTestApp(t, testFS(t))

	body := get(app, "/blog").Body.String()
	march := strings.Index(body, "/blog/march")
	february := strings.Index(body, "/blog/february")
	if march < 0 || february < 0 || march > february {
		t.Errorf("page 1 should list march before february")
	}
	if strings.Contains(body, "/blog/january\"") {
		t.Errorf("page 1 should not list january")
	}

	page2 := get(app, "/blog/page/2").Body.String()
	if !strings.Contains(page2, "/blog/january") {
		t.Errorf("page 2 should list january")
	}

	cat := get(app, "/blog/category/rust").Body.String()
	if !strings.Contains(cat, "/blog/march") || !strings.Contains(cat, "/blog/february") {
		t.Errorf("rust category should list march and february")
	}
	if strings.Contains(cat, "/blog/january\"") {
		t.Errorf("rust category should not list january")
	}
}

func TestPostPage(t *testing.T) {
	app := newTestApp(t, testFS(t))

	rec := get(app, "/blog/march")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<em>markdown</em>",
		"https://blog.example.com/blog/march/og.png",
		`"@type":"BlogPosting"`,
		"/blog/february",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("post page missing %q", want)
		}
	}
}

func TestNotFoundPage(t *testing.T) {
	app := newTestApp(t, testFS(t))

	rec := get(app, "/blog/nope")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Test Blog") {
		t.Errorf("not found page should use the site layout")
	}
}

func TestCacheControl(t *testing.T) {
	app := newTestApp(t, testFS(t))

	tests := []struct {
		path string
		want string
	}{
		{"/blog", "public, max-age=3600"},
		{"/blog/nope", "no-store"},
		{"/blog/page/9", "no-store"},
		{"/api/posts/page/9", "no-store"},
		{"/public/missing.css", "no-store"},
		{"/favicon.svg", "public, max-age=86400"},
		{"/api/posts.json", "public, max-age=600"},
		{"/blog/march/og", cacheImmutable},
	}
	for _, tt := range tests {
		if got := get(app, tt.path).Header().Get("Cache-Control"); got != tt.want {
			t.Errorf("GET %s Cache-Control = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFeeds(t *testing.T) {
	app := newTestApp(t, testFS(t))

	tests := []struct {
		path        string
		contentType string
		want        string
	}{
		{"/rss.xml", "application/rss+xml; charset=utf-8", "<rss"},
		{"/api/rss.xml", "application/rss+xml; charset=utf-8", "<rss"},
		{"/index.xml", "application/atom+xml; charset=utf-8", "<feed"},
	}
	for _, tt := range tests {
		rec := get(app, tt.path)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d, want 200", tt.path, rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != tt.contentType {
			t.Errorf("GET %s Content-Type = %q, want %q", tt.path, got, tt.contentType)
		}
		if got := rec.Header().Get("Cache-Control"); got != cacheFeed {
			t.Errorf("GET %s Cache-Control = %q, want %q", tt.path, got, cacheFeed)
		}
		body := rec.Body.String()
		if !strings.Contains(body, tt.want) {
			t.Errorf("GET %s body missing %q", tt.path, tt.want)
		}
		if strings.Count(body, "https://blog.example.com/blog/march") == 0 {
			t.Errorf("GET %s should link the march post", tt.path)
		}
		if strings.Contains(body, "Broken") {
			t.Errorf("GET %s should skip the malformed post", tt.path)
		}
	}

	rss := get(app, "/api/rss.xml").Body.String()
	if !strings.Contains(rss, `href="https://blog.example.com/api/rss.xml"`) {
		t.Errorf("self link should point at the requested feed path")
	}
}

func TestAPI(t *testing.T) {
	app := newTestApp(t, testFS(t))

	var first []content.Post
	if err := json.Unmarshal(get(app, "/api/posts.json").Body.Bytes(), &first); err != nil {
		t.Fatalf("decode posts.json: %v", err)
	}
	if len(first) != 2 || first[0].Slug != "march" || first[1].Slug != "february" {
		t.Errorf("posts.json = %v, want [march february]", first)
	}
	if first[0].EnhancedImage == nil || len(first[0].EnhancedImage.Sources) != 2 {
		t.Errorf("march should carry two cover variants, got %+v", first[0].EnhancedImage)
	}

	if got := strings.TrimSpace(get(app, "/api/posts/count").Body.String()); got != "4" {
		t.Errorf("count = %s, want 4", got)
	}

	var page2 []content.Post
	if err := json.Unmarshal(get(app, "/api/posts/page/2").Body.Bytes(), &page2); err != nil {
		t.Fatalf("decode page 2: %v", err)
	}
	if len(page2) != 1 || page2[0].Slug != "january" {
		t.Errorf("page 2 = %v, want [january]", page2)
	}

	rec := get(app, "/api/posts/page/3")
	if rec.Code != http.StatusNotFound {
		t.Errorf("page 3 = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("api error Content-Type = %q, want application/json", ct)
	}
}

func TestEmptyBlog(t *testing.T) {
	app := newTestApp(t, fstest.MapFS{"posts": {Mode: os.ModeDir}})

	if rec := get(app, "/blog"); rec.Code != http.StatusOK {
		t.Errorf("GET /blog = %d, want 200", rec.Code)
	}
	if rec := get(app, "/blog/page/2"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /blog/page/2 = %d, want 404", rec.Code)
	}
	if got := strings.TrimSpace(get(app, "/api/posts/page/1").Body.String()); got != "[]" {
		t.Errorf("page 1 = %s, want []", got)
	}
	if got := strings.TrimSpace(get(app, "/api/posts.json").Body.String()); got != "[]" {
		t.Errorf("posts.json = %s, want []", got)
	}
	rss := get(app, "/rss.xml").Body.String()
	if !strings.Contains(rss, "<channel>") || strings.Contains(rss, "<item>") {
		t.Errorf("empty rss should have a channel and no items")
	}
}

func TestOGImages(t *testing.T) {
	app := newTestApp(t, testFS(t))

	svg := get(app, "/blog/march/og")
	if svg.Code != http.StatusOK {
		t.Fatalf("GET og = %d, want 200", svg.Code)
	}
	if got := svg.Header().Get("Content-Type"); got != mimeSVG {
		t.Errorf("og Content-Type = %q, want %q", got, mimeSVG)
	}
	if got := svg.Header().Get("Cache-Control"); got != cacheImmutable {
		t.Errorf("og Cache-Control = %q, want %q", got, cacheImmutable)
	}
	body := svg.Body.String()
	if !strings.Contains(body, "blog.example.com") || !strings.Contains(body, "March") {
		t.Errorf("og card should show the host and the title")
	}

	pngRec := get(app, "/blog/march/og.png")
	if pngRec.Code != http.StatusOK {
		t.Fatalf("GET og.png = %d, want 200", pngRec.Code)
	}
	if got := pngRec.Header().Get("Content-Type"); got != mimePNG {
		t.Errorf("og.png Content-Type = %q, want %q", got, mimePNG)
	}
	cfg, err := png.DecodeConfig(pngRec.Body)
	if err != nil {
		t.Fatalf("decode og.png: %v", err)
	}
	if cfg.Width != 1200 || cfg.Height != 630 {
		t.Errorf("og.png size = %dx%d, want 1200x630", cfg.Width, cfg.Height)
	}

	if rec := get(app, "/blog/nope/og.png"); rec.Code != http.StatusNotFound {
		t.Errorf("og.png for unknown post = %d, want 404", rec.Code)
	}
}

func TestCoverVariants(t *testing.T) {
	app := newTestApp(t, testFS(t))

	rec := get(app, "/blog/march/cover/512.jpg")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET cover = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != mimeJPEG {
		t.Errorf("cover Content-Type = %q, want %q", got, mimeJPEG)
	}
	cfg, err := jpeg.DecodeConfig(rec.Body)
	if err != nil {
		t.Fatalf("decode cover: %v", err)
	}
	if cfg.Width != 512 || cfg.Height != 256 {
		t.Errorf("cover size = %dx%d, want 512x256", cfg.Width, cfg.Height)
	}

	for _, path := range []string{
		"/blog/march/cover/1024.jpg",
		"/blog/march/cover/300.jpg",
		"/blog/march/cover/big.jpg",
		"/blog/january/cover/512.jpg",
	} {
		if rec := get(app, path); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}
}

func TestRenderLimit(t *testing.T) {
	app := newTestApp(t, testFS(t), func(c *SiteConfig) { c.RenderLimit = 1 })

	if rec := get(app, "/blog/january/og.png"); rec.Code != http.StatusOK {
		t.Fatalf("first render = %d, want 200", rec.Code)
	}
	rec := get(app, "/blog/january/og.png")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second render = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if rec := get(app, "/blog/january/og"); rec.Code != http.StatusOK {
		t.Errorf("svg card should not be limited, got %d", rec.Code)
	}
}

func TestSitemap(t *testing.T) {
	app := newTestApp(t, testFS(t))

	body := get(app, "/sitemap.xml").Body.String()
	for _, want := range []string{
		"<loc>https://blog.example.com/blog</loc>",
		"<loc>https://blog.example.com/blog/march</loc>",
		"<lastmod>2024-03-01</lastmod>",
		"<loc>https://blog.example.com/blog/category/rust</loc>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}
	if strings.Contains(body, "/blog/broken") {
		t.Errorf("sitemap should skip the malformed post")
	}
}

func TestPrerender(t *testing.T) {
	app := newTestApp(t, testFS(t))
	out := filepath.Join(t.TempDir(), "dist")

	routes, err := app.Routes(context.Background())
	if err != nil {
		t.Fatalf("Routes: %v", err)
	}
	n, err := app.Prerender(context.Background(), out)
	if err != nil {
		t.Fatalf("Prerender: %v", err)
	}
	if n != len(routes) {
		t.Errorf("Prerender = %d routes, want %d", n, len(routes))
	}

	read := func(rel string) string {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
		if err != nil {
			t.Errorf("read %s: %v", rel, err)
			return ""
		}
		return string(data)
	}

	if got := read("blog/index.html"); !strings.Contains(got, "/blog/march") {
		t.Errorf("blog/index.html should list march")
	}
	if got := read("blog/page/1/index.html"); !strings.Contains(got, `url=/blog"`) {
		t.Errorf("blog/page/1 should be a redirect stub, got %q", got)
	}
	if got := read("index.html"); !strings.Contains(got, "/blog") {
		t.Errorf("index.html should redirect to /blog")
	}
	if got := read("blog/category/go/page/1/index.html"); !strings.Contains(got, "/blog/category/go") {
		t.Errorf("category page 1 should redirect to the category")
	}
	if got := read("blog/march/index.html"); !strings.Contains(got, "<em>markdown</em>") {
		t.Errorf("post page should contain the rendered body")
	}
	if got := read("rss.xml"); !strings.HasPrefix(got, "<?xml") {
		t.Errorf("rss.xml should be written verbatim")
	}
	if got := strings.TrimSpace(read("api/posts/count")); got != "4" {
		t.Errorf("api/posts/count = %q, want 4", got)
	}
	if got := read("blog/march/og.png"); !strings.HasPrefix(got, "\x89PNG") {
		t.Errorf("og.png should be a png")
	}
	for _, rel := range []string{
		"blog/march/og",
		"blog/march/cover/512.jpg",
		"blog/march/cover/256.jpg",
		"public/style.css",
		"favicon.svg",
		"sitemap.xml",
		"index.xml",
	} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
	for _, rel := range []string{
		"blog/category/50%/index.html",
		"blog/category/c#/index.html",
		"blog/category/Go Lang/index.html",
	} {
		if got := read(rel); !strings.Contains(got, "/blog/february") {
			t.Errorf("%s should list february", rel)
		}
	}
	if got := read("blog/category/50%/page/1/index.html"); !strings.Contains(got, "/blog/category/50%25") {
		t.Errorf("escaped category page 1 should redirect to the escaped category URL, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(out, "blog", "broken")); !os.IsNotExist(err) {
		t.Errorf("malformed post should not be prerendered")
	}
}

func TestPrerenderReplacesOutput(t *testing.T) {
	app := newTestApp(t, testFS(t))
	out := t.TempDir()
	stale := filepath.Join(out, "stale.html")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Prerender(context.Background(), out); err != nil {
		t.Fatalf("Prerender: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale file should be removed")
	}
	if _, err := app.Prerender(context.Background(), "."); err == nil {
		t.Errorf("Prerender(.) should refuse to replace the working directory")
	}
}

func TestPrerenderCancelled(t *testing.T) {
	app := newTestApp(t, testFS(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := app.Prerender(ctx, filepath.Join(t.TempDir(), "dist")); err == nil {
		t.Errorf("Prerender with a cancelled context should fail")
	}
}

func TestFilterRelatedPosts(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	current := content.Post{Slug: "a", Date: day, Categories: []string{"go", "web"}}
	all := []content.Post{
		{Slug: "a", Categories: []string{"go"}},
		{Slug: "b", Categories: []string{"rust"}},
		{Slug: "c", Categories: []string{"web"}},
		{Slug: "d", Categories: []string{"Go"}},
		{Slug: "e", Categories: []string{"go", "web"}},
	}
	got := FilterRelatedPosts(current, all)
	var slugs []string
	for _, p := range got {
		slugs = append(slugs, p.Slug)
	}
	if strings.Join(slugs, ",") != "c,e" {
		t.Errorf("FilterRelatedPosts = %v, want [c e]", slugs)
	}
	if got := FilterRelatedPosts(content.Post{Slug: "x"}, all); got != nil {
		t.Errorf("post without categories should have no related posts, got %v", got)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  My Blog!  ", "my-blog"},
		{"Go 1.24 -- released", "go-1-24-released"},
		{"already-slugged", "already-slugged"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSiteOrigin(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/", "https://example.com"},
		{"https://example.com/blog/?q=1#x", "https://example.com/blog"},
		{"http://localhost:3000", "http://localhost:3000"},
	}
	for _, tt := range tests {
		if got := siteOrigin(tt.in); got != tt.want {
			t.Errorf("siteOrigin(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
