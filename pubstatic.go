// Package pubstatic is a statically prerendered blog engine built with Go,
// Echo and templ. It serves markdown posts with pagination, categories,
// RSS and Atom feeds and generated social preview images, and can write
// every route to disk as a static site.
//
// Page markup is pluggable through ViewFuncs; pubstatic owns the content
// pipeline, the handlers and the middleware.
package pubstatic

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/text/language"

	"github.com/eringen/pubstatic/content"
	"github.com/eringen/pubstatic/markdown"
	"github.com/eringen/pubstatic/og"
	"github.com/eringen/pubstatic/posts"
	"github.com/eringen/pubstatic/views"
)

// App is the central pubstatic application. It wires together the content
// store, the aggregator, the renderers, the handlers and the middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Posts  *posts.Service
	Views  ViewFuncs
	Logger *log.Logger

	repo         content.Repository
	markdown     *markdown.Renderer
	cards        *og.Renderer
	logo         []byte
	limiter      *RenderLimiter
	customRoutes []func(*App)
}

// New creates an App for cfg. Routes and middleware are registered
// immediately so the App can serve or prerender straight away.
func New(cfg SiteConfig, opts ...Option) (*App, error) {
	cfg.setDefaults()
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("pubstatic: invalid site url %q: %w", cfg.URL, err)
	}

	a := &App{
		Config:   cfg,
		Echo:     echo.New(),
		Views:    DefaultViews(),
		markdown: markdown.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		a.Logger = log.New("pubstatic")
		a.Logger.SetLevel(log.INFO)
	}
	if a.repo == nil {
		a.repo = content.NewFSRepository(os.DirFS(cfg.ContentDir), ".")
	}

	lang, err := language.Parse(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("pubstatic: invalid language %q: %w", cfg.Language, err)
	}
	a.Posts = posts.NewService(a.repo, posts.Config{
		PageSize:    cfg.PostsPerPage,
		Strict:      cfg.StrictContent,
		Concurrency: cfg.LoadConcurrency,
		Language:    lang,
		ImageWidths: cfg.ImageWidths,
	}, a.Logger)

	if err := a.loadCardAssets(); err != nil {
		return nil, err
	}
	if cfg.RenderLimit > 0 {
		a.limiter = NewRenderLimiter(cfg.RenderLimit, time.Minute)
	}

	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	a.Echo.Logger = a.Logger
	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return a, nil
}

// loadCardAssets reads the fonts and logo used by the preview renderers.
// The logo falls back to the site favicon.
func (a *App) loadCardAssets() error {
	bold, err := readOptional(a.Config.FontBoldPath)
	if err != nil {
		return fmt.Errorf("pubstatic: bold font: %w", err)
	}
	regular, err := readOptional(a.Config.FontPath)
	if err != nil {
		return fmt.Errorf("pubstatic: font: %w", err)
	}
	if a.cards, err = og.NewRenderer(bold, regular); err != nil {
		return fmt.Errorf("pubstatic: %w", err)
	}

	if a.logo, err = readOptional(a.Config.LogoPath); err != nil {
		return fmt.Errorf("pubstatic: logo: %w", err)
	}
	if a.logo == nil {
		a.logo = a.favicon()
	}
	return nil
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// favicon returns the site favicon, or the embedded default.
func (a *App) favicon() []byte {
	if data, err := os.ReadFile(a.staticPath(faviconName)); err == nil {
		return data
	}
	data, _ := fs.ReadFile(EmbeddedAssets, "embedded/"+faviconName)
	return data
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/", handleHomeRedirect)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/public/*", a.handlePublic)

	e.GET("/api/posts.json", a.handleAPIPosts)
	e.GET("/api/posts/count", a.handleAPICount)
	e.GET("/api/posts/page/:page", a.handleAPIPage)

	e.GET("/rss.xml", a.handleRSS)
	e.GET("/api/rss.xml", a.handleRSS)
	e.GET("/index.xml", a.handleAtom)
	e.GET("/sitemap.xml", a.handleSitemap)

	e.GET("/blog", a.handleBlog)
	e.GET("/blog/page/:page", a.handleBlogPage)
	e.GET("/blog/category", a.handleCategories)
	e.GET("/blog/category/:category", a.handleCategory)
	e.GET("/blog/category/:category/page", a.handleCategoryPageRedirect)
	e.GET("/blog/category/:category/page/:page", a.handleCategoryPage)
	e.GET("/blog/:slug", a.handlePost)
	e.GET("/blog/:slug/og", a.handleOG)
	e.GET("/blog/:slug/og.png", a.handleOGPNG, a.renderLimit)
	e.GET("/blog/:slug/cover/:width", a.handleCover, a.renderLimit)
}

// Start serves the site on Config.Addr until Shutdown is called.
func (a *App) Start() error {
	a.Logger.Infof("serving %s on %s", a.Config.Name, a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and releases background workers.
func (a *App) Shutdown(ctx context.Context) error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	return a.Echo.Shutdown(ctx)
}

// siteInfo is the view of the configuration the templates need.
func (a *App) siteInfo() views.SiteInfo {
	return views.SiteInfo{
		Name:        a.Config.Name,
		URL:         siteOrigin(a.Config.URL),
		Description: a.Config.Description,
		Author:      a.Config.Author,
		Language:    a.Config.Language,
		NavItems:    a.Config.NavItems,
	}
}
