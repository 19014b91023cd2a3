package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

// Repository is the read-only view of the content store used by the
// aggregator and the route handlers.
type Repository interface {
	// ListDocuments returns every document in discovery order.
	ListDocuments(ctx context.Context) ([]Handle, error)
	// LoadFrontMatter reads the front-matter of h. Failures are reported
	// as *ContentLoadError.
	LoadFrontMatter(ctx context.Context, h Handle) (Post, error)
	// LoadBySlug returns the document with its body, or ErrNotFound.
	LoadBySlug(ctx context.Context, slug string) (*Document, error)
	// OpenAsset opens a file stored next to a post, such as its cover image.
	OpenAsset(ctx context.Context, slug, name string) (io.ReadCloser, error)
}

const markdownExt = ".md"

// FSRepository reads markdown documents from a flat directory of an fs.FS.
// A post "hello.md" has slug "hello"; its assets live in "hello/".
type FSRepository struct {
	fsys fs.FS
	dir  string
}

var _ Repository = (*FSRepository)(nil)

// NewFSRepository returns a repository over the *.md files directly inside
// dir of fsys. Use "." for the root.
func NewFSRepository(fsys fs.FS, dir string) *FSRepository {
	dir = path.Clean(strings.TrimSpace(dir))
	if dir == "" || dir == "/" {
		dir = "."
	}
	return &FSRepository{fsys: fsys, dir: dir}
}

// ListDocuments returns the markdown files of the content directory sorted
// by file name.
func (r *FSRepository) ListDocuments(ctx context.Context) ([]Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(r.fsys, r.dir)
	if err != nil {
		return nil, fmt.Errorf("list content %s: %w", r.dir, err)
	}
	handles := make([]Handle, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != markdownExt || strings.HasPrefix(name, ".") {
			continue
		}
		handles = append(handles, Handle{
			Slug: strings.TrimSuffix(name, markdownExt),
			Path: path.Join(r.dir, name),
		})
	}
	return handles, nil
}

// LoadFrontMatter reads h and parses its front-matter.
func (r *FSRepository) LoadFrontMatter(ctx context.Context, h Handle) (Post, error) {
	doc, err := r.load(ctx, h)
	if err != nil {
		return Post{}, err
	}
	return doc.Post, nil
}

// LoadBySlug looks a document up by slug.
func (r *FSRepository) LoadBySlug(ctx context.Context, slug string) (*Document, error) {
	if !ValidSlug(slug) {
		return nil, ErrNotFound
	}
	h := Handle{Slug: slug, Path: path.Join(r.dir, slug+markdownExt)}
	if _, err := fs.Stat(r.fsys, h.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, loadError(h, err)
	}
	return r.load(ctx, h)
}

// OpenAsset opens name inside the asset directory of slug.
func (r *FSRepository) OpenAsset(ctx context.Context, slug, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidSlug(slug) || !validAssetName(name) {
		return nil, ErrNotFound
	}
	f, err := r.fsys.Open(path.Join(r.dir, slug, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open asset %s/%s: %w", slug, name, err)
	}
	return f, nil
}

func (r *FSRepository) load(ctx context.Context, h Handle) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(r.fsys, h.Path)
	if err != nil {
		return nil, loadError(h, err)
	}
	post, body, err := ParseDocument(h.Slug, data)
	if err != nil {
		return nil, loadError(h, err)
	}
	return &Document{Post: post, Body: body}, nil
}

// ValidSlug reports whether slug can name a document: a single, non-hidden
// path element.
func ValidSlug(slug string) bool {
	return slug != "" && !strings.HasPrefix(slug, ".") && !strings.ContainsAny(slug, `/\`) && fs.ValidPath(slug)
}
