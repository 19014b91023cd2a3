package pubstatic

import (
	"github.com/a-h/templ"
	"github.com/labstack/gommon/log"

	"github.com/eringen/pubstatic/content"
	"github.com/eringen/pubstatic/imaging"
	"github.com/eringen/pubstatic/views"
)

// SiteConfig holds all configuration for a pubstatic site. The CLI fills it
// from config.yaml, PUBSTATIC_* environment variables and flags.
type SiteConfig struct {
	Name        string `mapstructure:"name"`        // Site name (default "Blog")
	URL         string `mapstructure:"url"`         // Canonical origin (default "http://localhost:3000")
	Description string `mapstructure:"description"` // Feed and meta description
	Author      string `mapstructure:"author"`      // Feed author and JSON-LD
	Language    string `mapstructure:"language"`    // BCP 47 tag for collation and <html lang> (default "en")

	PostsPerPage int             `mapstructure:"posts_per_page"` // default 10
	NavItems     []views.NavItem `mapstructure:"nav"`

	ContentDir string `mapstructure:"content_dir"` // Markdown posts (default "posts")
	StaticDir  string `mapstructure:"static_dir"`  // Served under /public (default "static")
	OutputDir  string `mapstructure:"output_dir"`  // Prerender target (default "dist")
	Addr       string `mapstructure:"addr"`        // Listen address (default ":3000")

	// StrictContent aborts listings on the first malformed post instead of
	// skipping it with a warning.
	StrictContent   bool  `mapstructure:"strict_content"`
	LoadConcurrency int   `mapstructure:"load_concurrency"` // default 8
	ImageWidths     []int `mapstructure:"image_widths"`

	FontPath     string `mapstructure:"font_path"`      // Regular face for og.png
	FontBoldPath string `mapstructure:"font_bold_path"` // Bold face for og.png
	LogoPath     string `mapstructure:"logo_path"`      // SVG logo for og cards

	// RenderLimit caps og.png and cover renders per client IP per minute
	// when serving. Zero disables the limit.
	RenderLimit int `mapstructure:"render_limit"`
}

const defaultRenderLimit = 30

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.PostsPerPage <= 0 {
		c.PostsPerPage = 10
	}
	if c.ContentDir == "" {
		c.ContentDir = "posts"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.LoadConcurrency <= 0 {
		c.LoadConcurrency = 8
	}
	if len(c.ImageWidths) == 0 {
		c.ImageWidths = imaging.DefaultWidths
	}
	if c.RenderLimit < 0 {
		c.RenderLimit = 0
	}
}

// DefaultConfig returns a SiteConfig with every default applied.
func DefaultConfig() SiteConfig {
	c := SiteConfig{RenderLimit: defaultRenderLimit}
	c.setDefaults()
	return c
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger sets the logger shared by Echo, the aggregator and the prerender.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithRepository replaces the filesystem content store.
func WithRepository(repo content.Repository) Option {
	return func(a *App) {
		a.repo = repo
	}
}

// WithViews overrides the default page components. Nil fields keep the default.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		if v.Blog != nil {
			a.Views.Blog = v.Blog
		}
		if v.Post != nil {
			a.Views.Post = v.Post
		}
		if v.Categories != nil {
			a.Views.Categories = v.Categories
		}
		if v.NotFound != nil {
			a.Views.NotFound = v.NotFound
		}
		if v.ServerError != nil {
			a.Views.ServerError = v.ServerError
		}
	}
}

// ViewFuncs holds the templ components the handlers render. Replace them
// with WithViews to own the markup.
type ViewFuncs struct {
	Blog        func(views.ListPage) templ.Component
	Post        func(views.PostPage) templ.Component
	Categories  func(views.CategoriesPage) templ.Component
	NotFound    func(views.SiteInfo) templ.Component
	ServerError func(views.SiteInfo) templ.Component
}

// DefaultViews returns the built-in page components.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Blog:        views.Blog,
		Post:        views.Post,
		Categories:  views.Categories,
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}
