package content

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"
)

func testRepository() *FSRepository {
	fsys := fstest.MapFS{
		"posts/b-post.md":        {Data: []byte("---\ntitle: B\ndate: 2024-01-02\n---\nbody b\n")},
		"posts/a-post.md":        {Data: []byte("---\ntitle: A\ndate: 2024-01-01\n---\nbody a\n")},
		"posts/broken.md":        {Data: []byte("---\ntitle: Broken\n---\n")},
		"posts/.draft.md":        {Data: []byte("---\ndate: 2024-01-01\n---\n")},
		"posts/notes.txt":        {Data: []byte("not a post")},
		"posts/a-post/title.jpg": {Data: []byte("jpeg bytes")},
	}
	return NewFSRepository(fsys, "posts")
}

func TestListDocuments(t *testing.T) {
	handles, err := testRepository().ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	want := []Handle{
		{Slug: "a-post", Path: "posts/a-post.md"},
		{Slug: "b-post", Path: "posts/b-post.md"},
		{Slug: "broken", Path: "posts/broken.md"},
	}
	if len(handles) != len(want) {
		t.Fatalf("got %d handles, want %d: %+v", len(handles), len(want), handles)
	}
	for i := range want {
		if handles[i] != want[i] {
			t.Errorf("handle %d = %+v, want %+v", i, handles[i], want[i])
		}
	}
}

func TestListDocumentsMissingDir(t *testing.T) {
	repo := NewFSRepository(fstest.MapFS{}, "posts")
	if _, err := repo.ListDocuments(context.Background()); err == nil {
		t.Error("expected an error for a missing content directory")
	}
}

func TestLoadFrontMatterError(t *testing.T) {
	repo := testRepository()
	_, err := repo.LoadFrontMatter(context.Background(), Handle{Slug: "broken", Path: "posts/broken.md"})
	var lerr *ContentLoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *ContentLoadError, got %v", err)
	}
	if lerr.Slug != "broken" || lerr.Path != "posts/broken.md" {
		t.Errorf("error = %+v", lerr)
	}
}

func TestLoadBySlug(t *testing.T) {
	repo := testRepository()
	doc, err := repo.LoadBySlug(context.Background(), "a-post")
	if err != nil {
		t.Fatalf("LoadBySlug failed: %v", err)
	}
	if doc.Title != "A" || strings.TrimSpace(string(doc.Body)) != "body a" {
		t.Errorf("doc = %q / %q", doc.Title, doc.Body)
	}

	for _, slug := range []string{"missing", "", "../a-post", ".draft", "a/b"} {
		if _, err := repo.LoadBySlug(context.Background(), slug); !errors.Is(err, ErrNotFound) {
			t.Errorf("LoadBySlug(%q) error = %v, want ErrNotFound", slug, err)
		}
	}
}

func TestOpenAsset(t *testing.T) {
	repo := testRepository()
	rc, err := repo.OpenAsset(context.Background(), "a-post", "title.jpg")
	if err != nil {
		t.Fatalf("OpenAsset failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "jpeg bytes" {
		t.Errorf("asset = %q", data)
	}

	tests := []struct{ slug, name string }{
		{"a-post", "missing.jpg"},
		{"a-post", "../b-post.md"},
		{"..", "a-post.md"},
	}
	for _, tt := range tests {
		if _, err := repo.OpenAsset(context.Background(), tt.slug, tt.name); !errors.Is(err, ErrNotFound) {
			t.Errorf("OpenAsset(%q, %q) error = %v, want ErrNotFound", tt.slug, tt.name, err)
		}
	}
}

func TestValidSlug(t *testing.T) {
	tests := map[string]bool{
		"hello-world": true,
		"2024_notes":  true,
		"":            false,
		".hidden":     false,
		"a/b":         false,
		`a\b`:         false,
		"..":          false,
	}
	for slug, want := range tests {
		if got := ValidSlug(slug); got != want {
			t.Errorf("ValidSlug(%q) = %v, want %v", slug, got, want)
		}
	}
}
