// Package feed renders post listings as RSS 2.0 and Atom documents.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/eringen/pubstatic/content"
)

// Format selects the feed dialect.
type Format int

const (
	RSS Format = iota
	Atom
)

// Content types served for each format.
const (
	RSSContentType  = "application/rss+xml; charset=utf-8"
	AtomContentType = "application/atom+xml; charset=utf-8"
)

const atomNS = "http://www.w3.org/2005/Atom"

// Channel describes the site publishing the feed.
type Channel struct {
	Title       string
	Description string
	Author      string
	// BaseURL is the absolute site origin without a trailing slash.
	BaseURL string
	// SelfPath is the site-relative path the feed is served from.
	SelfPath string
	// Generated stamps the Atom feed when it has no entries.
	Generated time.Time
}

func (ch Channel) base() string {
	return strings.TrimRight(ch.BaseURL, "/")
}

func (ch Channel) selfURL() string {
	return ch.base() + "/" + strings.TrimLeft(ch.SelfPath, "/")
}

// PostURL returns the absolute URL of the post page for slug.
func PostURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/blog/" + slug
}

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string      `xml:"title"`
	Description string      `xml:"description"`
	Link        string      `xml:"link"`
	Self        rssAtomLink `xml:"atom:link"`
	Items       []rssItem   `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	GUID        rssGUID  `xml:"guid"`
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Categories  []string `xml:"category"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// RenderRSS renders posts, newest first as given, as an RSS 2.0 document.
func RenderRSS(ch Channel, posts []content.Post) ([]byte, error) {
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		link := PostURL(ch.BaseURL, p.Slug)
		items = append(items, rssItem{
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			Title:       p.Title,
			Link:        link,
			Description: p.Excerpt,
			PubDate:     p.Date.UTC().Format(time.RFC1123Z),
			Categories:  p.Categories,
		})
	}
	doc := rssXML{
		Version: "2.0",
		AtomNS:  atomNS,
		Channel: rssChannel{
			Title:       ch.Title,
			Description: ch.Description,
			Link:        ch.base(),
			Self: rssAtomLink{
				Href: ch.selfURL(),
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: items,
		},
	}
	return encode(doc)
}

type atomXML struct {
	XMLName  xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle,omitempty"`
	Links    []atomLink  `xml:"link"`
	ID       string      `xml:"id"`
	Updated  string      `xml:"updated"`
	Author   *atomAuthor `xml:"author,omitempty"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomAuthor struct {
	Name string `xml:"name"`
	URI  string `xml:"uri,omitempty"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Link       atomLink       `xml:"link"`
	Summary    string         `xml:"summary"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Categories []atomCategory `xml:"category"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// RenderAtom renders posts as an Atom 1.0 document. The feed's updated stamp
// is the most recent entry update, or ch.Generated for an empty feed.
func RenderAtom(ch Channel, posts []content.Post) ([]byte, error) {
	updated := ch.Generated
	entries := make([]atomEntry, 0, len(posts))
	for i, p := range posts {
		link := PostURL(ch.BaseURL, p.Slug)
		if i == 0 || p.Updated().After(updated) {
			updated = p.Updated()
		}
		e := atomEntry{
			ID:        link,
			Title:     p.Title,
			Link:      atomLink{Href: link, Rel: "alternate", Type: "text/html"},
			Summary:   p.Excerpt,
			Published: p.Date.UTC().Format(time.RFC3339),
			Updated:   p.Updated().UTC().Format(time.RFC3339),
		}
		for _, c := range p.Categories {
			e.Categories = append(e.Categories, atomCategory{Term: c})
		}
		entries = append(entries, e)
	}

	doc := atomXML{
		Title:    ch.Title,
		Subtitle: ch.Description,
		Links: []atomLink{
			{Href: ch.base(), Rel: "alternate", Type: "text/html"},
			{Href: ch.selfURL(), Rel: "self", Type: "application/atom+xml"},
		},
		ID:      ch.base() + "/",
		Updated: updated.UTC().Format(time.RFC3339),
		Entries: entries,
	}
	if ch.Author != "" {
		doc.Author = &atomAuthor{Name: ch.Author, URI: ch.base()}
	}
	return encode(doc)
}

// Render dispatches on format.
func Render(format Format, ch Channel, posts []content.Post) ([]byte, error) {
	switch format {
	case RSS:
		return RenderRSS(ch, posts)
	case Atom:
		return RenderAtom(ch, posts)
	default:
		return nil, fmt.Errorf("feed: unknown format %d", format)
	}
}

// ContentType returns the media type served for format.
func (f Format) ContentType() string {
	if f == Atom {
		return AtomContentType
	}
	return RSSContentType
}

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
