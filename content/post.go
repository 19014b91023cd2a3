// Package content provides the read-only content store: markdown documents
// with a front-matter header, addressed by a slug derived from the filename.
package content

import (
	"time"

	"github.com/eringen/pubstatic/imaging"
)

// Post is the front-matter record of a single document plus its derived fields.
type Post struct {
	Title         string           `json:"title"`
	Date          time.Time        `json:"date"`
	UpdatedDate   *time.Time       `json:"updated,omitempty"`
	Categories    []string         `json:"categories"`
	Excerpt       string           `json:"excerpt"`
	CoverImage    string           `json:"coverImage,omitempty"`
	CoverAlt      string           `json:"coverAlt,omitempty"`
	CoverCredits  string           `json:"coverCredits,omitempty"`
	Slug          string           `json:"slug"`
	EnhancedImage *imaging.Picture `json:"enhancedImage,omitempty"`
}

// Updated returns UpdatedDate when set, otherwise Date.
func (p Post) Updated() time.Time {
	if p.UpdatedDate != nil {
		return *p.UpdatedDate
	}
	return p.Date
}

// HasCategory reports whether the post is filed under category. The match is
// exact and case-sensitive.
func (p Post) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Link returns the site-relative path of the post page.
func (p Post) Link() string {
	return "/blog/" + p.Slug
}

// Document is a post together with its markdown body.
type Document struct {
	Post
	Body []byte
}

// Handle identifies a document discovered in a Repository.
type Handle struct {
	Slug string
	Path string
}
