package pubstatic

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/eringen/pubstatic/content"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// FilterRelatedPosts returns the posts other than current that share at
// least one category with it, in the given order.
func FilterRelatedPosts(current content.Post, posts []content.Post) []content.Post {
	if len(current.Categories) == 0 {
		return nil
	}
	var related []content.Post
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		for _, cat := range p.Categories {
			if current.HasCategory(cat) {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

// siteOrigin returns the site URL without a trailing slash, dropping any
// query or fragment.
func siteOrigin(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimRight(raw, "/")
	}
	u.RawQuery, u.Fragment = "", ""
	return strings.TrimRight(u.String(), "/")
}

func (a *App) staticPath(name string) string {
	return filepath.Join(a.Config.StaticDir, filepath.FromSlash(name))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
