package views

import (
	"encoding/json"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/eringen/pubstatic/content"
)

// AbsURL joins a site origin and a site-relative path.
func AbsURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	if path == "" || path == "/" {
		return base + "/"
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// CategoryURL returns the listing URL of a category.
func CategoryURL(category string) string {
	return "/blog/category/" + url.PathEscape(category)
}

// PathEscape wraps url.PathEscape for use in templates.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// CategoryClass returns CSS classes for a category pill, with active variant.
func CategoryClass(active bool) string {
	if active {
		return "pill pill-active"
	}
	return "pill"
}

// FormatDate renders a post date for display.
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block for the site.
func WebsiteJsonLD(site SiteInfo) template.JS {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      AbsURL(site.URL, "/"),
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	if site.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  site.Author,
		}
	}
	return marshalJS(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(site SiteInfo, post content.Post) template.JS {
	postURL := AbsURL(site.URL, post.Link())
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Excerpt,
		"datePublished": post.Date.Format(time.RFC3339),
		"dateModified":  post.Updated().Format(time.RFC3339),
		"url":           postURL,
		"image":         AbsURL(site.URL, post.Link()+"/og.png"),
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  site.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if site.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  site.Author,
		}
	}
	if len(post.Categories) > 0 {
		data["keywords"] = strings.Join(post.Categories, ", ")
	}
	return marshalJS(data)
}

// marshalJS encodes v for a <script type="application/ld+json"> block.
// json.Marshal escapes <, > and & so the output cannot close the script.
func marshalJS(v interface{}) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return template.JS(b)
}
