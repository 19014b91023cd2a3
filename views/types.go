package views

import (
	"html/template"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/pubstatic/content"
	"github.com/eringen/pubstatic/posts"
)

// SiteInfo holds the site-wide settings every page template needs.
type SiteInfo struct {
	Name        string
	URL         string // absolute origin, no trailing slash
	Description string
	Author      string
	Language    string
	NavItems    []NavItem
}

// NavItem is one entry of the header navigation.
type NavItem struct {
	Label string `mapstructure:"label" yaml:"label"`
	Href  string `mapstructure:"href" yaml:"href"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image, absolute
	JSONLD      template.JS
}

// Pagination describes the position of a listing page.
type Pagination struct {
	Page  int
	Pages int
	// Base is the canonical URL of page 1.
	Base string
}

// NewPagination computes the page count for total posts split into pages of
// perPage. An empty listing still has one page.
func NewPagination(page, total, perPage int, base string) Pagination {
	pages := 1
	if perPage > 0 && total > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Pagination{Page: page, Pages: pages, Base: base}
}

// PageURL returns the URL of page n; page 1 is the base URL itself.
func (p Pagination) PageURL(n int) string {
	if n <= 1 {
		return p.Base
	}
	return p.Base + "/page/" + strconv.Itoa(n)
}

func (p Pagination) HasPrev() bool   { return p.Page > 1 }
func (p Pagination) HasNext() bool   { return p.Page < p.Pages }
func (p Pagination) PrevURL() string { return p.PageURL(p.Page - 1) }
func (p Pagination) NextURL() string { return p.PageURL(p.Page + 1) }

// Numbers lists every page number, for the page links.
func (p Pagination) Numbers() []int {
	out := make([]int, p.Pages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// ListPage is a page of the blog index or of a category.
type ListPage struct {
	Site       SiteInfo
	Meta       PageMeta
	Heading    string
	Category   string
	Posts      []content.Post
	Pagination Pagination
}

// PostPage is a single post with its rendered body.
type PostPage struct {
	Site    SiteInfo
	Meta    PageMeta
	Post    content.Post
	Body    templ.Component
	Related []content.Post
}

// CategoriesPage lists every category with its post count.
type CategoriesPage struct {
	Site       SiteInfo
	Meta       PageMeta
	Categories []posts.CategoryCount
}

// ErrorPage is rendered for 404 and 5xx responses.
type ErrorPage struct {
	Site    SiteInfo
	Meta    PageMeta
	Code    int
	Message string
}
