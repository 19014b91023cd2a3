package content

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a slug or asset does not exist in the store.
var ErrNotFound = errors.New("content: not found")

// ContentLoadError reports a document that could not be read or whose
// front-matter is malformed.
type ContentLoadError struct {
	Path string
	Slug string
	Err  error
}

func (e *ContentLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *ContentLoadError) Unwrap() error {
	return e.Err
}

func loadError(h Handle, err error) error {
	return &ContentLoadError{Path: h.Path, Slug: h.Slug, Err: err}
}
