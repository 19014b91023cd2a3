// Package posts aggregates the content store into sorted, filtered and
// paginated post listings and derives the category index.
package posts

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/eringen/pubstatic/content"
	"github.com/eringen/pubstatic/imaging"
)

// Query.Limit sentinels. Unlimited disables truncation and DefaultLimit
// selects the configured page size. Any other value is taken literally, so a
// zero Limit yields an empty page.
const (
	Unlimited    = -1
	DefaultLimit = -2
)

const (
	defaultPageSize    = 10
	defaultConcurrency = 8
)

// Query selects a page of posts.
type Query struct {
	Offset   int
	Limit    int
	Category string
}

// Result is one page of posts and the size of the set being paginated.
type Result struct {
	Posts []content.Post `json:"posts"`
	Total int            `json:"total"`
}

// Logger receives warnings about skipped documents.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// Config tunes the aggregator.
type Config struct {
	PageSize int
	// Strict aborts the whole aggregation on the first document that fails
	// to load instead of skipping it.
	Strict      bool
	Concurrency int
	Language    language.Tag
	ImageWidths []int
}

// Service runs the aggregation pipeline against a content.Repository. It
// keeps no state between calls; every call rescans the store.
type Service struct {
	repo content.Repository
	cfg  Config
	log  Logger
}

// NewService creates a Service. logger may be nil.
func NewService(repo content.Repository, cfg Config, logger Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Language == language.Und {
		cfg.Language = language.English
	}
	if cfg.ImageWidths == nil {
		cfg.ImageWidths = imaging.DefaultWidths
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Service{repo: repo, cfg: cfg, log: logger}
}

// PageSize returns the number of posts per listing page.
func (s *Service) PageSize() int {
	return s.cfg.PageSize
}

// Fetch loads every post, sorts by date descending, applies the category
// filter and then the offset and limit. Total counts the filtered set
// before pagination.
func (s *Service) Fetch(ctx context.Context, q Query) (Result, error) {
	all, err := s.load(ctx)
	if err != nil {
		return Result{}, err
	}

	selected := all
	if q.Category != "" {
		selected = make([]content.Post, 0, len(all))
		for _, p := range all {
			if p.HasCategory(q.Category) {
				selected = append(selected, p)
			}
		}
	}
	total := len(selected)

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(selected) {
		offset = len(selected)
	}
	selected = selected[offset:]

	limit := q.Limit
	if limit == DefaultLimit {
		limit = s.cfg.PageSize
	}
	if limit >= 0 && limit < len(selected) {
		selected = selected[:limit]
	}

	return Result{Posts: selected, Total: total}, nil
}

// Get returns a single post with its body. Documents that fail to load are
// reported as content.ErrNotFound unless the service is strict, so lookups
// agree with listings.
func (s *Service) Get(ctx context.Context, slug string) (*content.Document, error) {
	doc, err := s.repo.LoadBySlug(ctx, slug)
	if err != nil {
		var lerr *content.ContentLoadError
		if errors.As(err, &lerr) && !s.cfg.Strict {
			s.log.Warnf("post %s unavailable: %v", slug, err)
			return nil, fmt.Errorf("%w: %s", content.ErrNotFound, slug)
		}
		return nil, err
	}
	s.attachPicture(ctx, &doc.Post)
	return doc, nil
}

// Count returns the number of documents in the store, including ones that
// would be skipped by Fetch.
func (s *Service) Count(ctx context.Context) (int, error) {
	handles, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return 0, err
	}
	return len(handles), nil
}

func (s *Service) load(ctx context.Context) ([]content.Post, error) {
	handles, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	loaded := make([]*content.Post, len(handles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, h := range handles {
		g.Go(func() error {
			post, err := s.repo.LoadFrontMatter(gctx, h)
			if err != nil {
				var lerr *content.ContentLoadError
				if errors.As(err, &lerr) && !s.cfg.Strict {
					s.log.Warnf("skipping post %s: %v", h.Path, err)
					return nil
				}
				return err
			}
			s.attachPicture(gctx, &post)
			loaded[i] = &post
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	out := make([]content.Post, 0, len(loaded))
	for _, p := range loaded {
		if p != nil {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// attachPicture derives the responsive cover variants. A missing or
// unreadable cover leaves the post without an enhanced image.
func (s *Service) attachPicture(ctx context.Context, p *content.Post) {
	if p.CoverImage == "" {
		return
	}
	rc, err := s.repo.OpenAsset(ctx, p.Slug, p.CoverImage)
	if err != nil {
		s.log.Warnf("post %s: cover %s: %v", p.Slug, p.CoverImage, err)
		return
	}
	defer rc.Close()
	cfg, err := imaging.DecodeConfig(rc)
	if err != nil {
		s.log.Warnf("post %s: cover %s: %v", p.Slug, p.CoverImage, err)
		return
	}
	p.EnhancedImage = imaging.NewPicture(p.Slug, cfg, s.cfg.ImageWidths)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{}) {}
