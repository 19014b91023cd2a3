package content

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCoverImage is the cover file name used when front-matter sets
// coverImage to true.
const DefaultCoverImage = "title.jpg"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type frontMatterEnvelope struct {
	Title        string      `yaml:"title"`
	Date         string      `yaml:"date"`
	Updated      string      `yaml:"updated"`
	UpdatedDate  string      `yaml:"updatedDate"`
	Categories   []string    `yaml:"categories"`
	Excerpt      string      `yaml:"excerpt"`
	CoverImage   interface{} `yaml:"coverImage"`
	CoverAlt     string      `yaml:"coverAlt"`
	CoverCredits string      `yaml:"coverCredits"`
}

// ParseDocument splits source into its front-matter and markdown body and
// builds the Post for slug. A missing or unparseable date is an error.
func ParseDocument(slug string, source []byte) (Post, []byte, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return Post{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	if strings.TrimSpace(meta.Date) == "" {
		return Post{}, nil, errors.New("frontmatter: date is required")
	}
	date, err := ParseDate(meta.Date)
	if err != nil {
		return Post{}, nil, err
	}

	post := Post{
		Title:        strings.TrimSpace(meta.Title),
		Date:         date,
		Categories:   cleanCategories(meta.Categories),
		Excerpt:      strings.TrimSpace(meta.Excerpt),
		CoverAlt:     meta.CoverAlt,
		CoverCredits: meta.CoverCredits,
		Slug:         slug,
	}
	if post.Title == "" {
		post.Title = TitleFromSlug(slug)
	}

	updated := meta.Updated
	if updated == "" {
		updated = meta.UpdatedDate
	}
	if strings.TrimSpace(updated) != "" {
		u, err := ParseDate(updated)
		if err != nil {
			return Post{}, nil, fmt.Errorf("updated: %w", err)
		}
		post.UpdatedDate = &u
	}

	cover, err := coverImageName(meta.CoverImage)
	if err != nil {
		return Post{}, nil, err
	}
	post.CoverImage = cover

	return post, body, nil
}

// ParseDate accepts RFC 3339 timestamps and the common date-only and
// zone-less forms. Zone-less values are interpreted as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("frontmatter: unrecognised date %q", s)
}

func cleanCategories(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func coverImageName(v interface{}) (string, error) {
	switch cover := v.(type) {
	case nil:
		return "", nil
	case bool:
		if cover {
			return DefaultCoverImage, nil
		}
		return "", nil
	case string:
		cover = strings.TrimSpace(cover)
		if cover == "" {
			return "", nil
		}
		if !validAssetName(cover) {
			return "", fmt.Errorf("frontmatter: invalid coverImage %q", cover)
		}
		return cover, nil
	default:
		return "", fmt.Errorf("frontmatter: coverImage must be a boolean or file name, got %T", v)
	}
}

// TitleFromSlug turns a slug such as "my-first-post" into "My First Post".
func TitleFromSlug(slug string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(language.English).String(s)
}

func validAssetName(name string) bool {
	return name != "." && name != ".." && path.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
